package network

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUnknownTreatedAsConnected(t *testing.T) {
	o := New()
	if !o.IsConnected() {
		t.Error("unknown state should gate as connected")
	}
	if err := o.WaitForConnection(context.Background(), time.Millisecond); err != nil {
		t.Errorf("expected immediate return, got %v", err)
	}
}

func TestWaitReleasedOnTransition(t *testing.T) {
	o := New()
	o.SetState(StateDisconnected)

	done := make(chan error, 1)
	go func() {
		done <- o.WaitForConnection(context.Background(), time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	o.SetState(StateConnected)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error on reconnect, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released on transition")
	}
}

func TestWaitTimesOut(t *testing.T) {
	o := New()
	o.SetState(StateDisconnected)
	err := o.WaitForConnection(context.Background(), 20*time.Millisecond)
	if err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestStopReleasesAllWaiters(t *testing.T) {
	o := New()
	o.SetState(StateDisconnected)

	results := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			results <- o.WaitForConnection(context.Background(), time.Second)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	o.Stop()

	for i := 0; i < 3; i++ {
		select {
		case err := <-results:
			if err != ErrStopped {
				t.Errorf("expected ErrStopped, got %v", err)
			}
		case <-time.After(time.Second):
			t.Fatal("waiter not released on stop")
		}
	}
}

func TestRetryWithBackoffSucceedsEventually(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), BackoffPolicy{Initial: time.Millisecond, Max: 10 * time.Millisecond, MaxAttempts: 5},
		func(error) bool { return true },
		func() error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		})
	if err != nil {
		t.Errorf("expected eventual success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithBackoffStopsOnNonTransient(t *testing.T) {
	attempts := 0
	sentinel := errors.New("fatal")
	err := RetryWithBackoff(context.Background(), DefaultBackoff,
		func(error) bool { return false },
		func() error {
			attempts++
			return sentinel
		})
	if err != sentinel {
		t.Errorf("expected sentinel error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for non-transient error, got %d", attempts)
	}
}

func TestRetryWithBackoffExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), BackoffPolicy{Initial: time.Millisecond, Max: time.Millisecond, MaxAttempts: 3},
		func(error) bool { return true },
		func() error {
			attempts++
			return errors.New("always fails")
		})
	if err == nil {
		t.Error("expected error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}
