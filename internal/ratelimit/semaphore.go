// Package ratelimit provides the process-wide connection-rate limiter the
// init task acquires a permit from before opening a transport. It rate
// limits the *rate* of new connections, not the count of concurrently open
// ones: a permit is held from acquisition until some time after the
// transport successfully opens, then released.
package ratelimit

import (
	"context"
	"time"
)

// Semaphore is a counting semaphore backed by a buffered channel, following
// the same "shared resource gated by channel capacity, not a mutex" pattern
// the teacher repo uses for AsyncTx's internal buffer.
type Semaphore struct {
	slots chan struct{}
}

// NewSemaphore creates a Semaphore allowing up to capacity concurrently held permits.
func NewSemaphore(capacity int) *Semaphore {
	if capacity <= 0 {
		capacity = 1
	}
	return &Semaphore{slots: make(chan struct{}, capacity)}
}

// Permit is a held semaphore slot. It must eventually be released, either
// directly via Release or after a delay via ReleaseAfter.
type Permit struct {
	sem *Semaphore
}

// Acquire blocks until a slot is free or ctx is done.
func (s *Semaphore) Acquire(ctx context.Context) (Permit, error) {
	select {
	case s.slots <- struct{}{}:
		return Permit{sem: s}, nil
	case <-ctx.Done():
		return Permit{}, ctx.Err()
	}
}

// Release frees the slot immediately. Safe to call at most once per permit.
func (p Permit) Release() {
	if p.sem == nil {
		return
	}
	<-p.sem.slots
}

// ReleaseAfter frees the slot after d elapses, from a detached goroutine,
// rate-limiting how often new connections may be opened rather than how
// many may be open at once.
func (p Permit) ReleaseAfter(d time.Duration) {
	if p.sem == nil {
		return
	}
	go func() {
		time.Sleep(d)
		p.Release()
	}()
}
