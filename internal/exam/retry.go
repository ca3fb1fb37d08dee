package exam

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/abhisek/prepzone/internal/attempt"
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the retry settings used when none are given.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     5 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryService is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryService struct {
	inner  Service
	config RetryConfig
}

// WithRetry wraps a Service with retry logic.
func WithRetry(s Service, cfg RetryConfig) Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &RetryService{inner: s, config: cfg}
}

func (r *RetryService) ListTests(ctx context.Context) ([]TestInfo, error) {
	var out []TestInfo
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.ListTests(ctx)
		return err
	})
	return out, err
}

// StartAttempt is retried too: the platform resumes an open attempt rather
// than opening a second one.
func (r *RetryService) StartAttempt(ctx context.Context, testID string) (*Session, error) {
	var out *Session
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.StartAttempt(ctx, testID)
		return err
	})
	return out, err
}

func (r *RetryService) AttemptState(ctx context.Context, attemptID string) (*State, error) {
	var out *State
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.AttemptState(ctx, attemptID)
		return err
	})
	return out, err
}

func (r *RetryService) SaveAnswer(ctx context.Context, attemptID, questionID string, a attempt.Answer) error {
	return r.do(ctx, func() error {
		return r.inner.SaveAnswer(ctx, attemptID, questionID, a)
	})
}

func (r *RetryService) ReportViolation(ctx context.Context, attemptID, reason string) error {
	return r.do(ctx, func() error {
		return r.inner.ReportViolation(ctx, attemptID, reason)
	})
}

func (r *RetryService) Submit(ctx context.Context, req SubmitRequest) error {
	return r.do(ctx, func() error {
		return r.inner.Submit(ctx, req)
	})
}

func (r *RetryService) Result(ctx context.Context, attemptID string) (*Result, error) {
	var out *Result
	err := r.do(ctx, func() error {
		var err error
		out, err = r.inner.Result(ctx, attemptID)
		return err
	})
	return out, err
}

func (r *RetryService) Name() string { return r.inner.Name() }

func (r *RetryService) Close() error { return r.inner.Close() }

func (r *RetryService) do(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := range r.config.MaxAttempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !shouldRetry(err) {
			return err
		}

		// Last attempt: return without sleeping.
		if i == r.config.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff(i, err)):
		}
	}
	return lastErr
}

// shouldRetry reports whether err is transient.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var rl *ErrRateLimit
	if errors.As(err, &rl) {
		return true
	}
	var unavail *ErrUnavailable
	return errors.As(err, &unavail)
}

// backoff computes the wait before the next attempt.
func (r *RetryService) backoff(n int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(n))
	if wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// ±20% jitter.
	wait += wait * 0.2 * (2*rand.Float64() - 1)
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
