package core

// limiter.go bounds how many pipeline runs execute at once.
//
// Each run is single-threaded and synchronous, but the HTTP boundary may start
// several at the same time and every run holds a whole source table in memory.
// The limiter uses a semaphore: when all slots are occupied, new requests wait
// up to maxWait before failing with ErrPipelineBusy.
//
// WaitForDrain blocks until all active runs complete, for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPipelineBusy is returned when all pipeline slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrPipelineBusy = errors.New("pipeline busy, please try again later")

// DefaultMaxConcurrentRuns is the default limit for parallel pipeline runs.
const DefaultMaxConcurrentRuns = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 10 * time.Second

// PipelineLimiter controls concurrent pipeline runs using a semaphore pattern.
type PipelineLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu       sync.RWMutex
	active   int
	onChange func(active int)
}

// NewPipelineLimiter creates a limiter that allows at most maxConcurrent simultaneous runs.
// Requests that cannot acquire a slot within maxWait will receive ErrPipelineBusy.
// onChange, when non-nil, receives the active count after every change; it is
// called with the limiter's lock held, so counts arrive in order.
func NewPipelineLimiter(maxConcurrent int, maxWait time.Duration, onChange func(active int)) *PipelineLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRuns
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &PipelineLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		onChange:  onChange,
	}
}

// Acquire attempts to acquire a run slot.
// Returns nil on success, ErrPipelineBusy if timeout expires.
// The caller MUST call Release() when the run completes (use defer).
func (l *PipelineLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.adjust(1)
		return nil

	case <-waitCtx.Done():
		// The caller's own cancellation is not a busy condition.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrPipelineBusy

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire.
func (l *PipelineLimiter) Release() {
	l.adjust(-1)
	<-l.semaphore
}

func (l *PipelineLimiter) adjust(delta int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active += delta
	if l.onChange != nil {
		l.onChange(l.active)
	}
}

// ActiveCount returns the number of runs in progress.
func (l *PipelineLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until all active runs complete or ctx is cancelled.
func (l *PipelineLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's current state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *PipelineLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
