package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

type RateLimitTestSuite struct {
	suite.Suite
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitTestSuite))
}

// Admission times must never put more than maxCalls inside any trailing
// window. Driven by a manual clock so waits resolve instantly.
func (suite *RateLimitTestSuite) TestSlidingWindowBound() {
	const (
		maxCalls = 3
		window   = time.Second
		total    = 10
	)

	clk := clock.NewManual(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	limiter := NewSlidingWindow(maxCalls, window, clk)

	admitted := make([]time.Time, 0, total)

	for i := 0; i < total; i++ {
		suite.Require().NoError(limiter.Wait(context.Background()))
		admitted = append(admitted, clk.Now())
	}

	for i := range admitted {
		count := 1
		for j := i + 1; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < window {
				count++
			}
		}
		suite.LessOrEqual(count, maxCalls,
			"window starting at admission %d holds %d calls", i, count)
	}
}

func (suite *RateLimitTestSuite) TestSlidingWindowBlocksRealClock() {
	limiter := NewSlidingWindow(2, 100*time.Millisecond, clock.NewSystem())

	start := time.Now()
	for i := 0; i < 6; i++ {
		suite.Require().NoError(limiter.Wait(context.Background()))
	}

	// Six calls at two per 100ms need at least two full window shifts.
	suite.GreaterOrEqual(time.Since(start), 200*time.Millisecond)
}

func (suite *RateLimitTestSuite) TestWaitHonorsContextCancellation() {
	limiter := NewSlidingWindow(1, time.Hour, clock.NewSystem())
	suite.Require().NoError(limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Wait(ctx)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAdmissionAborted))
}

func (suite *RateLimitTestSuite) TestConcurrentWaitersAllAdmitted() {
	limiter := NewSlidingWindow(4, 50*time.Millisecond, clock.NewSystem())

	const workers = 12

	var wg sync.WaitGroup

	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func(idx int) {
			defer wg.Done()
			errs[idx] = limiter.Wait(context.Background())
		}(i)
	}

	wg.Wait()

	for idx, err := range errs {
		suite.NoError(err, "waiter %d was not admitted", idx)
	}

	suite.LessOrEqual(limiter.Len(), 4)
}

func (suite *RateLimitTestSuite) TestCompositeRequiresAllLimiters() {
	clk := clock.NewManual(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))

	perSecond := NewSlidingWindow(5, time.Second, clk)
	perMinute := NewSlidingWindow(8, time.Minute, clk)
	composite := NewComposite(perSecond, perMinute)

	for i := 0; i < 8; i++ {
		suite.Require().NoError(composite.Wait(context.Background()))
	}

	// The ninth call is inside the per-minute ceiling's window; the manual
	// clock jumps forward instead of blocking.
	before := clk.Now()
	suite.Require().NoError(composite.Wait(context.Background()))
	suite.True(clk.Now().After(before))
}

func (suite *RateLimitTestSuite) TestNewProviderLimiterDefaults() {
	limiter := NewProviderLimiter(20, 1000, clock.NewSystem())
	suite.Require().NotNil(limiter)
	suite.NoError(limiter.Wait(context.Background()))
}
