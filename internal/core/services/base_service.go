package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/SscSPs/ledger_integrity_core/internal/apperrors"
	"github.com/SscSPs/ledger_integrity_core/internal/middleware"
	"github.com/SscSPs/ledger_integrity_core/internal/platform/metrics"
)

// RetryConfig bounds how often a unit of work is retried after a transient
// storage failure.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 10 * time.Millisecond
	}
	if c.MaxDelay <= c.BaseDelay {
		c.MaxDelay = 2 * c.BaseDelay
	}
	return c
}

// BaseService provides common functionality for all services
type BaseService struct {
	Metrics *metrics.Metrics
	Retry   RetryConfig
	Clock   func() time.Time
}

// Now returns the service clock, UTC.
func (s *BaseService) Now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// withRetry runs fn, retrying transient failures with backoff. When the
// retries are exhausted the last error (code UNAVAILABLE) is returned.
func withRetry[T any](ctx context.Context, s *BaseService, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := s.Retry.normalized()
	policy := retrypolicy.NewBuilder[T]().
		HandleIf(func(_ T, err error) bool {
			return apperrors.IsTransient(err)
		}).
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()

	attempt := 0
	return failsafe.With[T](policy).WithContext(ctx).Get(func() (T, error) {
		attempt++
		if attempt > 1 {
			s.Metrics.TxRetry(operation)
			s.LogDebug(ctx, "Retrying unit of work", slog.String("operation", operation), slog.Int("attempt", attempt))
		}
		return fn(ctx)
	})
}
