package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func trip(b *Breaker, n int) {
	for range n {
		_ = b.Execute(func() error { return errTest })
	}
}

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestFailurePassesThrough(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	if err := b.Execute(func() error { return errTest }); !errors.Is(err, errTest) {
		t.Fatalf("expected errTest, got %v", err)
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	trip(b, 3)

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatal("fn must not run while open")
	}
	if b.State() != "open" {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestHalfOpenSuccessCloses(t *testing.T) {
	b := NewBreaker("test", 2, 20*time.Millisecond)
	trip(b, 2)

	time.Sleep(40 * time.Millisecond)

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error in half-open, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called in half-open")
	}
	if b.State() != "closed" {
		t.Fatalf("expected closed after half-open success, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker("test", 2, 20*time.Millisecond)
	trip(b, 2)

	time.Sleep(40 * time.Millisecond)
	_ = b.Execute(func() error { return errTest })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after reopen, got %v", err)
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)

	trip(b, 2)
	_ = b.Execute(func() error { return nil })
	trip(b, 2)

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected breaker still closed, got %v", err)
	}
}

func TestCanceledCallsDoNotTrip(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)
	_ = b.Execute(func() error { return context.Canceled })

	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("cancellation must not open the circuit, got %v", err)
	}
}

func TestDeadlineExceededTrips(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)
	_ = b.Execute(func() error { return context.DeadlineExceeded })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestStateChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var transitions []string
	b := NewBreaker("litellm", 1, time.Second, WithStateChange(func(name, from, to string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, name+":"+from+"->"+to)
	}))
	trip(b, 1)

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "litellm:closed->open" {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestCall(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)

	v, err := Call(b, func() (string, error) { return "ok", nil })
	if err != nil || v != "ok" {
		t.Fatalf("expected ok, got %q %v", v, err)
	}

	v, err = Call(b, func() (string, error) { return "partial", errTest })
	if !errors.Is(err, errTest) || v != "" {
		t.Fatalf("expected zero value and errTest, got %q %v", v, err)
	}

	if _, err := Call(b, func() (int, error) { return 1, nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}
