// Package ratelimit bounds outbound API traffic with sliding-window
// admission control. Calls are delayed, never dropped: the count of admitted
// calls inside any trailing window never exceeds the configured maximum.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Limiter admits calls subject to a rate policy.
type Limiter interface {
	// Wait blocks until the call may proceed or the context is cancelled.
	Wait(ctx context.Context) error
}

// SlidingWindow admits at most maxCalls within any trailing window. Entries
// older than the window are pruned lazily on each admission attempt.
type SlidingWindow struct {
	mu       sync.Mutex
	window   time.Duration
	maxCalls int
	calls    []time.Time
	clk      clock.Clock
}

// NewSlidingWindow creates a limiter admitting maxCalls per window.
func NewSlidingWindow(maxCalls int, window time.Duration, clk clock.Clock) *SlidingWindow {
	return &SlidingWindow{
		window:   window,
		maxCalls: maxCalls,
		calls:    make([]time.Time, 0, maxCalls),
		clk:      clk,
	}
}

// Wait blocks until admitting one more call keeps the trailing window under
// the limit, then records the call. Sleeping happens outside the mutex so a
// full window does not serialize unrelated admission checks.
func (l *SlidingWindow) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeAdmissionAborted, "rate limit wait aborted", err)
	}

	for {
		l.mu.Lock()
		now := l.clk.Now()
		l.prune(now)

		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()

			return nil
		}

		// The oldest entry leaves the window after this long; time has
		// passed by then, so re-check rather than assume admission.
		sleep := l.window - now.Sub(l.calls[0])
		l.mu.Unlock()

		if sleep <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return errors.Wrap(errors.ErrCodeAdmissionAborted, "rate limit wait aborted", ctx.Err())
		case <-l.clk.After(sleep):
		}
	}
}

// prune drops entries older than the trailing window. Caller holds the mutex.
func (l *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-l.window)

	idx := 0
	for idx < len(l.calls) && !l.calls[idx].After(cutoff) {
		idx++
	}

	if idx > 0 {
		l.calls = append(l.calls[:0], l.calls[idx:]...)
	}
}

// Len returns the number of calls currently inside the window.
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.clk.Now())

	return len(l.calls)
}

// Composite chains independent limiters; every limiter must admit before the
// call proceeds. Used to compose the provider's per-second and per-minute
// ceilings.
type Composite struct {
	limiters []Limiter
}

// NewComposite creates a limiter that requires admission from every child.
func NewComposite(limiters ...Limiter) *Composite {
	return &Composite{limiters: limiters}
}

// NewProviderLimiter composes the per-second and per-minute ceilings from
// provider policy.
func NewProviderLimiter(maxPerSecond, maxPerMinute int, clk clock.Clock) *Composite {
	return NewComposite(
		NewSlidingWindow(maxPerSecond, time.Second, clk),
		NewSlidingWindow(maxPerMinute, time.Minute, clk),
	)
}

// Wait blocks until every child limiter admits the call.
func (c *Composite) Wait(ctx context.Context) error {
	for _, l := range c.limiters {
		if err := l.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}
