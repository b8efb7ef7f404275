package core

// scan_limiter.go caps how many spreadsheet exports are fetched at once.
//
// Every BeginScan downloads and buffers a whole spreadsheet, so fetches are
// the expensive step. A semaphore channel holds one token per running fetch;
// callers wait up to maxWait for a token before failing with ErrTooManyScans.
// Iterating an already-fetched scan does not need a token.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyScans is returned when every fetch slot stays busy for the whole
// wait period. Clients should retry after a short delay.
var ErrTooManyScans = errors.New("too many concurrent scans, please try again later")

const (
	// DefaultMaxConcurrentScans is the default number of parallel fetches.
	DefaultMaxConcurrentScans = 4

	// DefaultScanWaitTime is how long to wait for a slot before rejecting.
	DefaultScanWaitTime = 30 * time.Second
)

// ScanLimiter bounds concurrent spreadsheet fetches.
type ScanLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int64
}

// NewScanLimiter creates a limiter allowing maxConcurrent fetches. Zero or
// negative arguments fall back to the defaults.
func NewScanLimiter(maxConcurrent int, maxWait time.Duration) *ScanLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentScans
	}
	if maxWait <= 0 {
		maxWait = DefaultScanWaitTime
	}
	return &ScanLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire waits for a fetch slot. It returns ErrTooManyScans when maxWait
// elapses first, or ctx's error when ctx ends first.
// Every successful Acquire must be paired with one Release.
func (l *ScanLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyScans
	}
}

// Release returns a slot taken by Acquire.
func (l *ScanLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// ActiveCount returns the number of fetches holding a slot.
func (l *ScanLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// MaxConcurrent returns the slot count.
func (l *ScanLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *ScanLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no fetch holds a slot or ctx ends. Used during
// shutdown.
func (l *ScanLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for l.ActiveCount() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// LimiterStatus is a snapshot of the limiter for the health endpoint.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *ScanLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}
