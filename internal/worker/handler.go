package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// JobHandler executes one type of background job.
type JobHandler interface {
	// Type returns the job type identifier that this handler processes.
	// This must match the job_type column in the jobs table.
	Type() string

	// Handle executes the job with its raw JSON payload. Return an error
	// wrapped with NewPermanentError to fail the job without retries.
	Handle(ctx context.Context, payload []byte) error
}

// HandlerFunc adapts a function to JobHandler.
type HandlerFunc struct {
	JobType string
	Fn      func(ctx context.Context, payload []byte) error
}

// Type implements JobHandler.
func (h HandlerFunc) Type() string { return h.JobType }

// Handle implements JobHandler.
func (h HandlerFunc) Handle(ctx context.Context, payload []byte) error { return h.Fn(ctx, payload) }

// PermanentError marks a job failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// NewPermanentError creates a new PermanentError that wraps the given error.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent checks if an error is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}

// DecodePayload unmarshals a job payload. A payload that cannot be decoded
// will never succeed, so the error is permanent.
func DecodePayload(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return NewPermanentError(fmt.Errorf("decode payload: %w", err))
	}
	return nil
}
