package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds surfaced by the coordinator.  Every failure returned by
// BookSlot or CancelAppointment matches exactly one of them via errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrSlotUnavailable   = errors.New("slot is not available")
	ErrNotFound          = errors.New("appointment not found")
	ErrAlreadyCancelled  = errors.New("appointment already cancelled")
	ErrAppointmentClosed = errors.New("appointment is already completed")
	ErrUnknownUser       = errors.New("user no longer exists")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ValidationError lists the offending fields of a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range sortedKeys(e.Fields) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// StoreError wraps an infrastructure failure.  It matches
// ErrStoreUnavailable and keeps the cause for logs.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

func (e *StoreError) Unwrap() error { return e.Err }

// kindOf classifies err into one of the exported kinds.  Unknown errors are
// treated as store failures.
func kindOf(op string, err error) error {
	for _, k := range []error{ErrValidation, ErrSlotUnavailable, ErrNotFound,
		ErrAlreadyCancelled, ErrAppointmentClosed, ErrUnknownUser, ErrStoreUnavailable} {
		if errors.Is(err, k) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
