package archive

// Archive stores raw fetch pages for replay and debugging. Archival is
// fire-and-log: pipeline progress never depends on it.
type Archive interface {
	Store(name string, data []byte) error
	Retrieve(name string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(name string) error
}

// Noop is used when no archive backend is configured.
type Noop struct{}

// Ensure Noop implements Archive
var _ Archive = (*Noop)(nil)

func (Noop) Store(string, []byte) error      { return nil }
func (Noop) Retrieve(string) ([]byte, error) { return nil, nil }
func (Noop) List(string) ([]string, error)   { return nil, nil }
func (Noop) Delete(string) error             { return nil }
