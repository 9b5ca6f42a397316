package itemstore

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports that the referenced item does not exist.
var ErrNotFound = errors.New("item not found")

// UpstreamError reports a failed call to the store: a transport error (Err
// set) or a non-success response (Status set). Timeouts land here too and are
// retryable by the caller.
type UpstreamError struct {
	Collection string
	Op         string
	Status     int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("itemstore: %s %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("itemstore: %s %s: status %d", e.Op, e.Collection, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (col *Collection) statusError(op string, status int) error {
	if status == http.StatusNotFound {
		return fmt.Errorf("itemstore: %s %s: %w", op, col.name, ErrNotFound)
	}
	return &UpstreamError{Collection: col.name, Op: op, Status: status}
}
