// Package apperr defines the error taxonomy shared across the application.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks lookups that came up empty. Update/delete on a
	// message that was never synced wraps this; callers treat it as
	// informational, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrConversion marks a failed image conversion. The attachment
	// degrades to a plain file block, so this is logged, never surfaced.
	ErrConversion = errors.New("conversion failed")
)

// RemoteError is a failed call to one of the platform APIs.
type RemoteError struct {
	Op     string // e.g. "notion: append blocks"
	Status int    // HTTP status, 0 when the request never completed
	Body   string // response body excerpt, may be empty
	Err    error  // underlying transport error, may be nil
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }
