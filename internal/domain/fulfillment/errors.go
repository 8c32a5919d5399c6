// internal/domain/fulfillment/errors.go
package fulfillment

import "fmt"

var ErrPreconditionFailed = fmt.Errorf("precondition failed")
var ErrInvalidTransition = fmt.Errorf("invalid transition")
var ErrNotFound = fmt.Errorf("fulfillment record not found")

// ErrAlreadyInPipeline is returned when an order already has a fulfillment record.
var ErrAlreadyInPipeline = fmt.Errorf("order is already in the fulfillment pipeline")

// ErrStale is returned by the repository when the record left the expected status
// between read and write.
var ErrStale = fmt.Errorf("fulfillment record changed concurrently")

// TransitionError describes a rejected action. It unwraps to one of the sentinels above.
type TransitionError struct {
	RecordID string
	From     Status
	Action   Action
	Err      error
}

func (e *TransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("%s: %s (record %s)", e.Err, e.Action, e.RecordID)
	}
	if e.RecordID != "" {
		return fmt.Sprintf("%s: %s from %s (record %s)", e.Err, e.Action, e.From, e.RecordID)
	}
	return fmt.Sprintf("%s: %s from %s", e.Err, e.Action, e.From)
}

func (e *TransitionError) Unwrap() error { return e.Err }
