package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySelection is returned when a combined invoice is requested with
	// no students selected.
	ErrEmptySelection = errors.New("no students selected")
	// ErrNoSessions is returned when an invoice request would carry no
	// session ids.
	ErrNoSessions = errors.New("no sessions to invoice")
	// ErrUnknownStudent is returned when a student has no group in the
	// current month.
	ErrUnknownStudent = errors.New("student has no sessions this month")
)

// ValidationError is raised before any collaborator call is attempted.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason.Error()
	}
	return fmt.Sprintf("validation: %s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

func invalid(field string, reason error) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NetworkError wraps a failed call to an external collaborator.
type NetworkError struct {
	Op  string
	ID  int64 // zero when the call is not about a single record
	Err error
}

func (e *NetworkError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError wraps err, or returns nil when err is nil. Errors that are
// already NetworkErrors are returned unchanged.
func NewNetworkError(op string, id int64, err error) error {
	if err == nil {
		return nil
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return err
	}
	return &NetworkError{Op: op, ID: id, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNetwork reports whether err is a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
