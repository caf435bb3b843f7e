package core

// load_limiter.go bounds how many datasets are read at once.
//
// Every load holds a whole file in memory while it is parsed, so the HTTP
// surface gates loads and uploads through a LoadLimiter. A load that cannot
// get a slot within the wait limit fails with ErrTooManyLoads.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyLoads is returned when every load slot stayed busy for the whole
// wait limit. Clients should retry after a short delay.
var ErrTooManyLoads = errors.New("too many concurrent loads, please try again later")

// DefaultMaxConcurrentLoads is the slot count used when none is given.
const DefaultMaxConcurrentLoads = 5

// DefaultLoadWait is how long Acquire waits for a slot when none is given.
const DefaultLoadWait = 30 * time.Second

// LoadLimiter is a counting semaphore for dataset loads.
type LoadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewLoadLimiter allows at most maxConcurrent loads at a time. Non-positive
// arguments select the defaults.
func NewLoadLimiter(maxConcurrent int, maxWait time.Duration) *LoadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentLoads
	}
	if maxWait <= 0 {
		maxWait = DefaultLoadWait
	}
	return &LoadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to the limiter's wait limit.
// The caller must Release the slot once the load finishes.
func (l *LoadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyLoads
	}
}

// TryAcquire takes a slot only if one is free.
func (l *LoadLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *LoadLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Do runs fn while holding a slot.
func (l *LoadLimiter) Do(ctx context.Context, fn func(context.Context) (*Table, error)) (*Table, error) {
	if err := l.Acquire(ctx); err != nil {
		return nil, err
	}
	defer l.Release()
	return fn(ctx)
}

// LoadLimiterStatus is a snapshot of limiter usage.
type LoadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status reports current usage.
func (l *LoadLimiter) Status() LoadLimiterStatus {
	return LoadLimiterStatus{
		Active:        int(l.active.Load()),
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}

// WaitForDrain blocks until no load holds a slot or ctx is done.
func (l *LoadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.active.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
