package exam

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/prepzone/internal/config"
)

// NewService creates the exam Service selected by cfg.Mode, wrapped with
// retry and logging middleware.
func NewService(_ context.Context, cfg config.ExamConfig, log zerolog.Logger) (Service, error) {
	var base Service

	switch cfg.Mode {
	case "mock", "":
		m, err := NewMockServiceFromDir(cfg.PackDir)
		if err != nil {
			return nil, fmt.Errorf("initializing mock service: %w", err)
		}
		base = m
	case "live":
		l, err := NewLiveService(LiveConfig{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Timeout: cfg.Timeout.Duration,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("initializing live service: %w", err)
		}
		base = l
	default:
		return nil, fmt.Errorf("unknown exam service mode: %q", cfg.Mode)
	}

	retry := DefaultRetryConfig()
	if cfg.Retry.MaxAttempts > 0 {
		retry = RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait.Duration,
			MaxWait:     cfg.Retry.MaxWait.Duration,
			Multiplier:  cfg.Retry.Multiplier,
		}
	}

	// caller → retry → logging → base
	logged := WithLogging(base, log)
	return WithRetry(logged, retry), nil
}
