package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"listam-parser-service/internal/core/port"
)

// RetryPolicy - экспоненциальная задержка между попытками: BaseDelay, 2*BaseDelay, 4*BaseDelay...
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неповторяемую: Do вернет ее сразу
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do выполняет fn, повторяя вызов при ошибке. Ожидание прерывается отменой контекста.
func (r RetryPolicy) Do(ctx context.Context, logger port.LoggerPort, operation string, fn func() error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt == attempts {
			break
		}

		logger.Warn("Attempt failed, retrying", port.Fields{
			"operation": operation,
			"attempt":   attempt,
			"max":       attempts,
			"error":     lastErr.Error(),
			"delay":     delay.String(),
		})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt, ctx.Err())
		case <-timer.C:
		}
		delay *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, attempts, lastErr)
}
