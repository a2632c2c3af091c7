// Package resilience — автоматический выключатель и ретраи для внешних вызовов.
package resilience

import (
	"errors"
	"sync"
	"time"
)

type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

const (
	DefaultFailureThreshold = 5
	DefaultRecoveryTimeout  = 60 * time.Second
)

// ErrOpen возвращается без попытки вызова, пока выключатель разомкнут.
var ErrOpen = errors.New("circuit breaker is open: service temporarily unavailable")

// CircuitBreaker: CLOSED -> OPEN после failureThreshold подряд неудач,
// OPEN -> HALF_OPEN после recoveryTimeout, HALF_OPEN пропускает один
// пробный вызов. Успех в любом состоянии сбрасывает счётчик и замыкает цепь.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	recoveryTimeout  time.Duration

	failureCount    int
	lastFailureTime time.Time
	state           State
}

func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = DefaultFailureThreshold
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = DefaultRecoveryTimeout
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
	}
}

// Call выполняет fn под контролем выключателя.
func (cb *CircuitBreaker) Call(fn func() error) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	cb.afterCall(err)
	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) < cb.recoveryTimeout {
			return ErrOpen
		}
		cb.state = StateHalfOpen
	}
	return nil
}

func (cb *CircuitBreaker) afterCall(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.failureCount = 0
		cb.state = StateClosed
		return
	}

	cb.failureCount++
	cb.lastFailureTime = time.Now()
	if cb.failureCount >= cb.failureThreshold {
		cb.state = StateOpen
	}
}

// Status — снимок состояния для мониторинга.
type Status struct {
	State            State      `json:"state"`
	FailureCount     int        `json:"failure_count"`
	LastFailureTime  *time.Time `json:"last_failure_time,omitempty"`
	FailureThreshold int        `json:"failure_threshold"`
	RecoveryTimeout  string     `json:"recovery_timeout"`
}

func (cb *CircuitBreaker) Status() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	s := Status{
		State:            cb.state,
		FailureCount:     cb.failureCount,
		FailureThreshold: cb.failureThreshold,
		RecoveryTimeout:  cb.recoveryTimeout.String(),
	}
	if !cb.lastFailureTime.IsZero() {
		t := cb.lastFailureTime
		s.LastFailureTime = &t
	}
	return s
}
