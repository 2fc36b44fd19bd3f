package notifications

import "github.com/flowcrm/pain-radar/internal/models"

// Notifier delivers scan outcome reports to operators. Deliveries are
// fire-and-log side channels; the pipeline never waits on them.
type Notifier interface {
	SendScanReport(keyword *models.Keyword, scan *models.Scan) error
}
