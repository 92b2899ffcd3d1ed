package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func newTestGate(maxRequests int, window time.Duration) *Gate {
	return NewGate(map[string]Limit{
		SteamSpyAll: {MaxRequests: maxRequests, Window: window},
	})
}

func TestGate_FirstAcquireIsImmediate(t *testing.T) {
	gate := newTestGate(1, time.Minute)

	start := time.Now()
	if err := gate.Acquire(context.Background(), SteamSpyAll); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("first acquire should not block, took %v", elapsed)
	}
}

func TestGate_SerialAcquiresRespectWindow(t *testing.T) {
	// 1 request per 300ms: N acquires must take at least (N-1)*300ms.
	gate := newTestGate(1, 300*time.Millisecond)

	const n = 3
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := gate.Acquire(context.Background(), SteamSpyAll); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)
	if min := (n - 1) * 300 * time.Millisecond; elapsed < min {
		t.Fatalf("expected at least %v for %d acquires, got %v", min, n, elapsed)
	}
}

func TestGate_IndependentKeysDoNotContend(t *testing.T) {
	gate := NewGate(map[string]Limit{
		SteamSpyAll: {MaxRequests: 1, Window: time.Minute},
		SteamSpyAPI: {MaxRequests: 1000, Window: time.Second},
	})

	// Drain the tight limiter.
	if err := gate.Acquire(context.Background(), SteamSpyAll); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	start := time.Now()
	if err := gate.Acquire(context.Background(), SteamSpyAPI); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("independent key blocked for %v", elapsed)
	}
}

func TestGate_ConcurrentAcquiresAllAdmitted(t *testing.T) {
	gate := newTestGate(100, 100*time.Millisecond)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- gate.Acquire(context.Background(), SteamSpyAll)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
	}
}

func TestGate_AcquireHonorsContextCancel(t *testing.T) {
	gate := newTestGate(1, time.Hour)
	if err := gate.Acquire(context.Background(), SteamSpyAll); err != nil {
		t.Fatalf("warm acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := gate.Acquire(ctx, SteamSpyAll); err == nil {
		t.Fatalf("expected context error for blocked acquire")
	}
}

func TestGate_UnknownKeyAdmitsImmediately(t *testing.T) {
	gate := newTestGate(1, time.Hour)
	if err := gate.Acquire(context.Background(), "unknown"); err != nil {
		t.Fatalf("acquire: %v", err)
	}
}
