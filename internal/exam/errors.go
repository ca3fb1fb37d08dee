package exam

import (
	"fmt"
	"time"
)

// ErrUnavailable indicates the platform is down or unreachable.
type ErrUnavailable struct {
	Err error
}

func (e *ErrUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("exam service unavailable: %v", e.Err)
	}
	return "exam service unavailable"
}

func (e *ErrUnavailable) Unwrap() error { return e.Err }

// ErrRateLimit indicates the platform returned 429.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrNotFound indicates an unknown test or attempt.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ErrRejected indicates the platform refused a request, e.g. a submit on an
// already closed attempt. It is not retried.
type ErrRejected struct {
	Status  int
	Message string
}

func (e *ErrRejected) Error() string {
	return fmt.Sprintf("request rejected (%d): %s", e.Status, e.Message)
}

// ErrInvalidPack indicates a test pack that failed to parse or validate.
type ErrInvalidPack struct {
	Source string
	Err    error
}

func (e *ErrInvalidPack) Error() string {
	return fmt.Sprintf("invalid test pack %s: %v", e.Source, e.Err)
}

func (e *ErrInvalidPack) Unwrap() error { return e.Err }
