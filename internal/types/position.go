package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is one open holding in the position ledger. Created on the first
// BUY fill, quantity-updated on partial fills, removed on a full SELL.
type Position struct {
	Ticker        string          `json:"ticker"`
	Region        Region          `json:"region"`
	Quantity      int64           `json:"quantity"`
	AvgEntryPrice decimal.Decimal `json:"avg_entry_price"`
	// CurrentPrice is the latest live quote. Zero means no live price was
	// available; risk evaluation must skip such positions, never treat
	// them as flat.
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sector       string          `json:"sector"`
	OpenedAt     time.Time       `json:"opened_at"`
}

// MarketValue returns current_price * quantity.
func (p *Position) MarketValue() decimal.Decimal {
	return p.CurrentPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// PnlPct returns the unrealized P&L percentage against the average entry
// price. The second return is false when it cannot be computed (no live
// price or zero entry price).
func (p *Position) PnlPct() (float64, bool) {
	if p.AvgEntryPrice.IsZero() || p.CurrentPrice.IsZero() {
		return 0, false
	}

	pct := p.CurrentPrice.Sub(p.AvgEntryPrice).
		Div(p.AvgEntryPrice).
		Mul(decimal.NewFromInt(100))

	f, _ := pct.Float64()

	return f, true
}

// ClosedTrade is a completed round trip, used by the consecutive-loss
// breaker evaluation.
type ClosedTrade struct {
	Ticker      string          `json:"ticker"`
	Region      Region          `json:"region"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	ClosedAt    time.Time       `json:"closed_at"`
}

// IsLoss reports whether the round trip realized a negative P&L.
func (t *ClosedTrade) IsLoss() bool {
	return t.RealizedPnL.IsNegative()
}

// Fill is an execution report applied to the ledger after an acknowledged
// order.
type Fill struct {
	OrderID   string          `json:"order_id"`
	Ticker    string          `json:"ticker"`
	Region    Region          `json:"region"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Sector    string          `json:"sector"`
	Timestamp time.Time       `json:"timestamp"`
}
