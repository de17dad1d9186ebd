package batch

import (
	"context"
	"errors"
	"fmt"
)

// BatchFailureError is returned when the request of one batch failed with a
// non-retryable error. The outcome of its nodes is known to be a failure.
type BatchFailureError struct {
	Index int
	Nodes []string
	Err   error
}

func (e *BatchFailureError) Error() string {
	return fmt.Sprintf("Batch %d (%d nodes) failed: %v", e.Index, len(e.Nodes), e.Err)
}

func (e *BatchFailureError) Unwrap() error {
	return e.Err
}

// TimeoutError is returned when the wait for the batches was cut short by
// the operation timeout or a cancellation. The listed batches may still
// complete on the service, their outcome is unknown.
type TimeoutError struct {
	Indices []int
	Nodes   int
	Err     error
}

func (e *TimeoutError) Error() string {
	reason := "cancelled"
	if errors.Is(e.Err, context.DeadlineExceeded) {
		reason = "timed out"
	}
	return fmt.Sprintf("Batches %v (%d nodes) %s before completion, their outcome is unknown", e.Indices, e.Nodes, reason)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsBatchFailure reports whether err contains a failed batch
func IsBatchFailure(err error) bool {
	var bf *BatchFailureError
	return errors.As(err, &bf)
}

// IsTimeout reports whether err contains unresolved batches
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
