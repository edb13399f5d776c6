// Package clock abstracts time for components that make timing decisions
// (token expiry, rate-limit windows, risk evaluation cycles) so tests can
// drive them deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock provides the current time and sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep blocks for at least d.
	Sleep(d time.Duration)
	// After returns a channel that delivers once d has elapsed, so callers
	// can select against context cancellation while waiting.
	After(d time.Duration) <-chan time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

// NewSystem creates a system Clock.
func NewSystem() Clock {
	return &System{}
}

// Now returns time.Now().
func (*System) Now() time.Time {
	return time.Now()
}

// Sleep calls time.Sleep.
func (*System) Sleep(d time.Duration) {
	time.Sleep(d)
}

// After calls time.After.
func (*System) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Manual is a Clock whose time only moves when advanced explicitly.
// Sleep advances the clock instead of blocking.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual creates a Manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual clock's current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

// Sleep advances the clock by d without blocking.
func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}

// After advances the clock by d and delivers immediately, so tests never
// block on simulated waits.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	m.Advance(d)

	ch := make(chan time.Time, 1)
	ch <- m.Now()

	return ch
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// Set moves the clock to the given time.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = t
}
