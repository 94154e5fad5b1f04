package limiter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRegistry_CapsConcurrencyPerToolScheduler(t *testing.T) {
	reg := NewRegistry(func(string) int { return 2 })

	var active int32
	var maxActive int32

	run := func(scheduler string) {
		release, err := reg.Acquire(context.Background(), "nmap", scheduler)
		if err != nil {
			t.Errorf("unexpected acquire error: %v", err)
			return
		}
		defer release()

		n := atomic.AddInt32(&active, 1)
		for {
			cur := atomic.LoadInt32(&maxActive)
			if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	}

	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		go func() {
			run("http")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 5; i++ {
		<-done
	}

	if maxActive > 2 {
		t.Errorf("observed %d concurrent executions, want <= 2", maxActive)
	}
}

func TestRegistry_IndependentCapacityPerScheduler(t *testing.T) {
	reg := NewRegistry(func(string) int { return 1 })

	relHTTP, err := reg.Acquire(context.Background(), "nmap", "http")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer relHTTP()

	// A different scheduler for the same tool must have its own capacity.
	relStdio, err := reg.Acquire(context.Background(), "nmap", "stdio")
	if err != nil {
		t.Fatalf("expected independent capacity for a different scheduler: %v", err)
	}
	relStdio()
}

func TestRegistry_AcquireHonorsCancellation(t *testing.T) {
	reg := NewRegistry(func(string) int { return 1 })

	release, err := reg.Acquire(context.Background(), "nmap", "http")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if _, err := reg.Acquire(ctx, "nmap", "http"); err == nil {
		t.Error("expected a cancellation error while the single slot is held")
	}
}

func TestRegistry_TryAcquireFailsFast(t *testing.T) {
	reg := NewRegistry(func(string) int { return 1 })

	release, err := reg.TryAcquire("nmap", "http")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer release()

	if _, err := reg.TryAcquire("nmap", "http"); err == nil {
		t.Error("expected resource_exhausted when the single slot is already taken")
	}
}
