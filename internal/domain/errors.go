package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"triposo/internal/mapping"
)

var (
	// ErrNotFound is the transport's 404. The API facade turns it into an
	// absent record or an empty list; callers of the facade never see it.
	ErrNotFound = errors.New("triposo: not found")
	// ErrUnauthorized is a 401 from the remote service.
	ErrUnauthorized = errors.New("triposo: unauthorized")
	// ErrCapabilityUnavailable is returned by relation accessors on a record
	// built without an API handle. No request is attempted.
	ErrCapabilityUnavailable = errors.New("triposo: record has no API handle")

	ErrNotObject = mapping.ErrNotObject
	ErrMissing   = mapping.ErrMissing
)

// StatusError is any non-success status other than 401 and 404.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("triposo: bad status %d", e.Status)
	}
	return fmt.Sprintf("triposo: bad status %d: %s", e.Status, e.Body)
}

// SlotError records a nested record that could not be built. The slot is
// left empty and construction of its siblings carries on.
type SlotError struct {
	Slot string
	Err  error
}

func (e *SlotError) Error() string { return "slot " + e.Slot + ": " + e.Err.Error() }
func (e *SlotError) Unwrap() error { return e.Err }

// nest prefixes the slot paths of errors raised by a nested record.
func nest(prefix string, errs []error) []error {
	out := make([]error, 0, len(errs))
	for _, err := range errs {
		var se *SlotError
		if errors.As(err, &se) {
			out = append(out, &SlotError{Slot: prefix + "." + se.Slot, Err: se.Err})
			continue
		}
		out = append(out, &SlotError{Slot: prefix, Err: err})
	}
	return out
}
