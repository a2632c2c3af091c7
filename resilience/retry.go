package resilience

import (
	"context"
	"log"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 60 * time.Second
)

// RetryHandler повторяет вызов до maxRetries раз после первой неудачи
// с экспоненциальной выдержкой min(baseDelay*2^attempt, maxDelay).
type RetryHandler struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

func NewRetryHandler(maxRetries int, baseDelay, maxDelay time.Duration) *RetryHandler {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	return &RetryHandler{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: maxDelay}
}

// Do возвращает nil при первом успехе, иначе последнюю ошибку
// после исчерпания попыток.
func (r *RetryHandler) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == r.maxRetries {
			break
		}

		delay := r.backoff(attempt)
		log.Printf("Attempt %d failed, retrying in %s: %v", attempt+1, delay, lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func (r *RetryHandler) backoff(attempt int) time.Duration {
	delay := r.baseDelay << uint(attempt)
	if delay > r.maxDelay || delay <= 0 {
		delay = r.maxDelay
	}
	return delay
}
