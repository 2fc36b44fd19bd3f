package models

import "fmt"

// ValidationError reports malformed caller input. No state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an unknown entity id within the caller's tenant.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ForbiddenError reports a tenant membership or ownership mismatch.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// NewForbiddenError creates a ForbiddenError.
func NewForbiddenError(reason string) *ForbiddenError {
	return &ForbiddenError{Reason: reason}
}

// ConflictError reports an operation rejected to protect an invariant,
// e.g. a second scan triggered while one is still active for the keyword.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Reason)
}

// NewConflictError creates a ConflictError.
func NewConflictError(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

// CollaboratorError reports a failed call to an external collaborator
// (source fetcher or AI service), including timeouts. StatusCode carries
// the upstream HTTP status when one was received, otherwise 0.
type CollaboratorError struct {
	Collaborator string
	StatusCode   int
	Err          error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Collaborator, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError creates a CollaboratorError.
func NewCollaboratorError(collaborator string, statusCode int, err error) *CollaboratorError {
	return &CollaboratorError{Collaborator: collaborator, StatusCode: statusCode, Err: err}
}
