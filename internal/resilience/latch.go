// Package resilience provides fault tolerance primitives
package resilience

import (
	"log/slog"
	"sync/atomic"
)

// Latch trips after a configured number of consecutive failures and stays
// tripped until Reset. Any success clears the failure streak. The capture
// loop uses it to turn repeated area-validation failures into a terminal
// "disconnected" signal without reacting to a single flaky check.
type Latch struct {
	threshold int32
	failures  atomic.Int32
	tripped   atomic.Bool
	onTrip    func()
}

// NewLatch creates a latch tripping at threshold consecutive failures.
func NewLatch(threshold int) *Latch {
	if threshold < 1 {
		threshold = 1
	}
	return &Latch{threshold: int32(threshold)}
}

// WithHook sets a callback invoked once when the latch trips.
func (l *Latch) WithHook(fn func()) *Latch {
	l.onTrip = fn
	return l
}

// Success clears the failure streak.
func (l *Latch) Success() {
	l.failures.Store(0)
}

// Failure records one failure and returns true if the latch is now tripped.
func (l *Latch) Failure() bool {
	count := l.failures.Add(1)
	if count >= l.threshold && l.tripped.CompareAndSwap(false, true) {
		slog.Warn("failure latch tripped", "failures", count)
		if l.onTrip != nil {
			l.onTrip()
		}
	}
	return l.tripped.Load()
}

// Failures returns the current consecutive-failure count.
func (l *Latch) Failures() int {
	return int(l.failures.Load())
}

// Reset clears the latch and the failure streak.
func (l *Latch) Reset() {
	l.failures.Store(0)
	l.tripped.Store(false)
}
