package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/loykin/prnotify/internal/common"
)

// Config holds the backoff policy for store operations.
type Config struct {
	MaxRetries      int           // attempts after the first one
	InitialDelay    time.Duration // delay before the first retry
	MaxDelay        time.Duration // upper bound for a single delay
	BackoffFactor   float64       // multiplier per attempt
	RetryableErrors []string      // lowercase substrings marking transient errors
}

// DefaultRetryConfig returns the policy used by the stores.
func DefaultRetryConfig() *Config {
	return &Config{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		RetryableErrors: []string{
			"connection refused",
			"connection reset",
			"timeout",
			"temporary failure",
			"deadlock",
			"database is locked",
			"sqlite_busy",
			"too many connections",
			"broken pipe",
		},
	}
}

// IsRetryable reports whether err looks transient. Context errors never are.
func (rc *Config) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range rc.RetryableErrors {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// Delay returns the wait before retry number attempt (0 based).
func (rc *Config) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return rc.InitialDelay
	}
	d := time.Duration(float64(rc.InitialDelay) * math.Pow(rc.BackoffFactor, float64(attempt)))
	if d > rc.MaxDelay {
		d = rc.MaxDelay
	}
	return d
}

// Do runs op until it succeeds, fails with a non transient error, or the
// retries are exhausted.
func Do(ctx context.Context, config *Config, op func() error) error {
	_, err := Value(ctx, config, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, config *Config, op func() (T, error)) (T, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}
	logger := common.GetLogger().WithComponent("store-retry")

	var zero T
	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err := op()
		if err == nil {
			if attempt > 0 {
				logger.Info("store operation succeeded after retry", "attempt", attempt+1)
			}
			return v, nil
		}
		lastErr = err
		if !config.IsRetryable(err) {
			return zero, err
		}
		if attempt == config.MaxRetries {
			break
		}
		delay := config.Delay(attempt)
		logger.Warn("store operation failed, retrying",
			"error", err,
			"attempt", attempt+1,
			"max_attempts", config.MaxRetries+1,
			"retry_delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("operation cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}
	logger.Error("store operation failed after all retry attempts", "error", lastErr, "attempts", config.MaxRetries+1)
	return zero, fmt.Errorf("operation failed after %d attempts: %w", config.MaxRetries+1, lastErr)
}
