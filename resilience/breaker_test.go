package resilience

import (
	"errors"
	"testing"
	"time"
)

var errService = errors.New("service failure")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return errService }); !errors.Is(err, errService) {
			t.Fatalf("call %d returned %v, want service error", i+1, err)
		}
	}

	if got := cb.Status().State; got != StateOpen {
		t.Fatalf("state after 3 failures = %s, want OPEN", got)
	}

	// Разомкнутая цепь отбивает вызов, не трогая функцию
	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrOpen) {
		t.Errorf("call on open breaker = %v, want ErrOpen", err)
	}
	if called {
		t.Error("function was invoked while breaker is open")
	}
}

func TestBreakerStaysClosedBelowThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.Call(func() error { return errService })
	cb.Call(func() error { return errService })

	if got := cb.Status().State; got != StateClosed {
		t.Errorf("state after 2 of 3 failures = %s, want CLOSED", got)
	}
	if got := cb.Status().FailureCount; got != 2 {
		t.Errorf("failure count = %d, want 2", got)
	}
}

func TestBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.Call(func() error { return errService })
	cb.Call(func() error { return errService })
	cb.Call(func() error { return nil })

	status := cb.Status()
	if status.FailureCount != 0 {
		t.Errorf("failure count after success = %d, want 0", status.FailureCount)
	}
	if status.State != StateClosed {
		t.Errorf("state after success = %s, want CLOSED", status.State)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.Call(func() error { return errService })
	if got := cb.Status().State; got != StateOpen {
		t.Fatalf("state = %s, want OPEN", got)
	}

	time.Sleep(20 * time.Millisecond)

	// Пробный вызов после recoveryTimeout проходит и замыкает цепь
	if err := cb.Call(func() error { return nil }); err != nil {
		t.Fatalf("trial call failed: %v", err)
	}
	if got := cb.Status().State; got != StateClosed {
		t.Errorf("state after successful trial = %s, want CLOSED", got)
	}
}

func TestBreakerReopensOnFailedTrial(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.Call(func() error { return errService })
	time.Sleep(20 * time.Millisecond)

	if err := cb.Call(func() error { return errService }); !errors.Is(err, errService) {
		t.Fatalf("trial call = %v, want service error", err)
	}
	if got := cb.Status().State; got != StateOpen {
		t.Errorf("state after failed trial = %s, want OPEN", got)
	}
}

func TestBreakerStatusSnapshot(t *testing.T) {
	cb := NewCircuitBreaker(5, 30*time.Second)

	status := cb.Status()
	if status.State != StateClosed {
		t.Errorf("initial state = %s, want CLOSED", status.State)
	}
	if status.FailureThreshold != 5 {
		t.Errorf("threshold = %d, want 5", status.FailureThreshold)
	}
	if status.LastFailureTime != nil {
		t.Error("LastFailureTime should be nil before any failure")
	}

	cb.Call(func() error { return errService })
	if cb.Status().LastFailureTime == nil {
		t.Error("LastFailureTime should be set after a failure")
	}
}

func TestBreakerDefaults(t *testing.T) {
	cb := NewCircuitBreaker(0, 0)
	status := cb.Status()
	if status.FailureThreshold != DefaultFailureThreshold {
		t.Errorf("threshold = %d, want default %d", status.FailureThreshold, DefaultFailureThreshold)
	}
	if status.RecoveryTimeout != DefaultRecoveryTimeout.String() {
		t.Errorf("recovery timeout = %s, want %s", status.RecoveryTimeout, DefaultRecoveryTimeout)
	}
}
