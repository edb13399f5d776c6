// Package ledger tracks open positions and completed round trips. It is the
// system of record the risk engine evaluates against.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
)

// Ledger is the position ledger consulted by the risk engine and updated by
// the execution engine after every acknowledged fill.
type Ledger interface {
	// RecordFill applies an execution report: BUY fills open or grow a
	// position, SELL fills shrink or close it and realize P&L.
	RecordFill(fill types.Fill) error

	// GetOpenPositions returns every open position. CurrentPrice is left
	// zero; callers attach live quotes themselves.
	GetOpenPositions() ([]types.Position, error)

	// GetDailyRealizedPnL sums realized P&L for round trips closed on the
	// calendar day containing t (UTC).
	GetDailyRealizedPnL(t time.Time) (decimal.Decimal, error)

	// GetSectorExposure returns entry notional per sector for open positions.
	GetSectorExposure() (map[string]decimal.Decimal, error)

	// GetRecentClosedTrades returns up to limit round trips, most recent
	// first.
	GetRecentClosedTrades(limit int) ([]types.ClosedTrade, error)

	// Close releases the underlying store.
	Close() error
}
