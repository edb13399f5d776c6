package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// BreakerType identifies an account-wide circuit breaker.
type BreakerType string

const (
	BreakerDailyLoss         BreakerType = "DAILY_LOSS"
	BreakerPositionCount     BreakerType = "POSITION_COUNT"
	BreakerSectorExposure    BreakerType = "SECTOR_EXPOSURE"
	BreakerConsecutiveLosses BreakerType = "CONSECUTIVE_LOSSES"
)

// AllBreakerTypes lists every circuit breaker evaluated per cycle.
var AllBreakerTypes = []BreakerType{
	BreakerDailyLoss,
	BreakerPositionCount,
	BreakerSectorExposure,
	BreakerConsecutiveLosses,
}

// IsValid reports whether b is a known breaker type.
func (b BreakerType) IsValid() bool {
	switch b {
	case BreakerDailyLoss, BreakerPositionCount, BreakerSectorExposure, BreakerConsecutiveLosses:
		return true
	default:
		return false
	}
}

// CircuitBreakerRecord is one row of the append-only breaker history.
// A breaker is active while ClearedAt is unset; at most one active record
// exists per breaker type.
type CircuitBreakerRecord struct {
	ID        string      `json:"id"`
	Type      BreakerType `json:"breaker_type"`
	TrippedAt time.Time   `json:"tripped_at"`
	Reason    string      `json:"reason"`
	// ClearedAt is set only by an explicit recovery action, never by the
	// condition going away on its own.
	ClearedAt optional.Option[time.Time] `json:"cleared_at"`
	// ClearedBy records the operator who recovered the breaker.
	ClearedBy optional.Option[string] `json:"cleared_by"`
}

// Active reports whether the record still gates trading.
func (r *CircuitBreakerRecord) Active() bool {
	return r.ClearedAt.IsNone()
}

// StopLossSignal is emitted when a position's unrealized loss breaches the
// stop-loss threshold.
type StopLossSignal struct {
	Ticker string  `json:"ticker"`
	Region Region  `json:"region"`
	PnlPct float64 `json:"pnl_pct"`
	Reason string  `json:"reason"`
}

// TakeProfitSignal is emitted when a position's unrealized gain breaches the
// take-profit threshold.
type TakeProfitSignal struct {
	Ticker string  `json:"ticker"`
	Region Region  `json:"region"`
	PnlPct float64 `json:"pnl_pct"`
	Reason string  `json:"reason"`
}

// BreakerTrip reports a breaker that transitioned CLEAR -> TRIPPED during an
// evaluation cycle.
type BreakerTrip struct {
	Type      BreakerType `json:"breaker_type"`
	Reason    string      `json:"reason"`
	TrippedAt time.Time   `json:"tripped_at"`
}

// RiskReport is the outcome of one evaluation cycle.
type RiskReport struct {
	StopLosses  []StopLossSignal   `json:"stop_losses"`
	TakeProfits []TakeProfitSignal `json:"take_profits"`
	Trips       []BreakerTrip      `json:"trips"`
	// Skipped counts positions left out of this cycle because no live
	// price was available.
	Skipped int `json:"skipped"`
}
