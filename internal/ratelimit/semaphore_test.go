package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAcquireBlocksUntilCapacityFrees(t *testing.T) {
	sem := NewSemaphore(1)
	p1, err := sem.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_, _ = sem.Acquire(context.Background())
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked while capacity is held")
	case <-time.After(20 * time.Millisecond):
	}

	p1.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after release")
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	sem := NewSemaphore(1)
	if _, err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sem.Acquire(ctx); err == nil {
		t.Fatal("expected error acquiring with a cancelled context")
	}
}

func TestReleaseAfterDelaysRelease(t *testing.T) {
	sem := NewSemaphore(1)
	p, err := sem.Acquire(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ReleaseAfter(30 * time.Millisecond)

	immediateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if _, err := sem.Acquire(immediateCtx); err == nil {
		t.Fatal("expected slot to still be held immediately after scheduling release")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		_, err := sem.Acquire(ctx)
		cancel()
		if err == nil {
			return
		}
	}
	t.Fatal("slot never freed")
}
