package risk

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/ledger"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/pricesource"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Engine is the risk state machine. It polls the position ledger, emits
// stop-loss and take-profit signals, and trips circuit breakers. Breakers
// never clear themselves; only Recover does.
type Engine struct {
	ledger ledger.Ledger
	prices pricesource.PriceSource
	store  BreakerStore
	cfg    config.RiskConfig
	clk    clock.Clock
	log    *logger.Logger

	mu     sync.RWMutex
	active map[types.BreakerType]types.CircuitBreakerRecord
}

// NewEngine creates a risk engine and reloads active breakers from the
// store, so a halt survives a process restart.
func NewEngine(l ledger.Ledger, prices pricesource.PriceSource, store BreakerStore, cfg config.RiskConfig, clk clock.Clock, log *logger.Logger) (*Engine, error) {
	records, err := store.ActiveBreakers()
	if err != nil {
		return nil, err
	}

	active := make(map[types.BreakerType]types.CircuitBreakerRecord, len(records))
	for _, record := range records {
		active[record.Type] = record
	}

	if len(active) > 0 {
		log.Warn("Trading halted by persisted circuit breakers",
			zap.Int("count", len(active)),
		)
	}

	return &Engine{
		ledger: l,
		prices: prices,
		store:  store,
		cfg:    cfg,
		clk:    clk,
		log:    log,
		active: active,
	}, nil
}

// CanTrade reports whether order submission is allowed. It reads only
// in-process state, so the submission path never waits on ledger I/O.
func (e *Engine) CanTrade() (bool, []types.BreakerType) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.active) == 0 {
		return true, nil
	}

	tripped := make([]types.BreakerType, 0, len(e.active))
	for _, breakerType := range types.AllBreakerTypes {
		if _, ok := e.active[breakerType]; ok {
			tripped = append(tripped, breakerType)
		}
	}

	return false, tripped
}

// ActiveBreakers returns a snapshot of the currently tripped breakers.
func (e *Engine) ActiveBreakers() []types.CircuitBreakerRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	records := make([]types.CircuitBreakerRecord, 0, len(e.active))
	for _, breakerType := range types.AllBreakerTypes {
		if record, ok := e.active[breakerType]; ok {
			records = append(records, record)
		}
	}

	return records
}

// Recover clears a tripped breaker on behalf of an operator. This is the
// only TRIPPED -> CLEAR transition.
func (e *Engine) Recover(breakerType types.BreakerType, operator string) error {
	if !breakerType.IsValid() {
		return errors.Newf(errors.ErrCodeUnknownBreakerType, "unknown breaker type %q", breakerType)
	}

	if operator == "" {
		return errors.New(errors.ErrCodeBreakerNotTripped, "recovery requires an operator identity")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[breakerType]; !ok {
		return errors.Newf(errors.ErrCodeBreakerNotTripped, "breaker %s is not tripped", breakerType)
	}

	if err := e.store.Clear(breakerType, operator, e.clk.Now()); err != nil {
		return err
	}

	delete(e.active, breakerType)

	e.log.Info("Circuit breaker recovered",
		zap.String("breaker_type", string(breakerType)),
		zap.String("operator", operator),
	)

	return nil
}

// Evaluate runs one risk cycle: per-position signals first, then the four
// account-wide breakers.
func (e *Engine) Evaluate(ctx context.Context) (types.RiskReport, error) {
	var report types.RiskReport

	positions, err := e.ledger.GetOpenPositions()
	if err != nil {
		return report, err
	}

	priced := make([]types.Position, 0, len(positions))

	for _, pos := range positions {
		price, err := e.prices.GetPrice(ctx, pos.Region, pos.Ticker)
		if err != nil {
			// Never substitute the entry price; a position without a live
			// quote sits out this cycle.
			report.Skipped++
			e.log.Warn("Skipping position with no live price",
				zap.String("ticker", pos.Ticker),
				zap.String("region", string(pos.Region)),
				zap.Error(err),
			)

			continue
		}

		pos.CurrentPrice = price
		priced = append(priced, pos)

		pnl, ok := pos.PnlPct()
		if !ok {
			report.Skipped++

			continue
		}

		switch {
		case pnl <= e.cfg.StopLossPct:
			report.StopLosses = append(report.StopLosses, types.StopLossSignal{
				Ticker: pos.Ticker,
				Region: pos.Region,
				PnlPct: pnl,
				Reason: fmt.Sprintf("pnl %.2f%% breached stop-loss %.2f%%", pnl, e.cfg.StopLossPct),
			})
		case pnl >= e.cfg.TakeProfitPct:
			report.TakeProfits = append(report.TakeProfits, types.TakeProfitSignal{
				Ticker: pos.Ticker,
				Region: pos.Region,
				PnlPct: pnl,
				Reason: fmt.Sprintf("pnl %.2f%% breached take-profit %.2f%%", pnl, e.cfg.TakeProfitPct),
			})
		}
	}

	trips, err := e.evaluateBreakers(positions, priced)
	if err != nil {
		return report, err
	}

	report.Trips = trips

	return report, nil
}

// Run polls Evaluate on the configured interval until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.cfg.PollInterval()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.clk.After(interval):
		}

		report, err := e.Evaluate(ctx)
		if err != nil {
			e.log.Error("Risk evaluation cycle failed", zap.Error(err))

			continue
		}

		if len(report.StopLosses) > 0 || len(report.TakeProfits) > 0 || len(report.Trips) > 0 {
			e.log.Info("Risk evaluation cycle",
				zap.Int("stop_losses", len(report.StopLosses)),
				zap.Int("take_profits", len(report.TakeProfits)),
				zap.Int("breaker_trips", len(report.Trips)),
				zap.Int("skipped", report.Skipped),
			)
		}
	}
}

func (e *Engine) evaluateBreakers(positions, priced []types.Position) ([]types.BreakerTrip, error) {
	var trips []types.BreakerTrip

	if reason, breached := e.checkDailyLoss(priced); breached {
		if trip, tripped, err := e.trip(types.BreakerDailyLoss, reason); err != nil {
			return nil, err
		} else if tripped {
			trips = append(trips, trip)
		}
	}

	if len(positions) > e.cfg.MaxPositionCount {
		reason := fmt.Sprintf("%d open positions exceed limit %d", len(positions), e.cfg.MaxPositionCount)
		if trip, tripped, err := e.trip(types.BreakerPositionCount, reason); err != nil {
			return nil, err
		} else if tripped {
			trips = append(trips, trip)
		}
	}

	if reason, breached, err := e.checkSectorExposure(); err != nil {
		return nil, err
	} else if breached {
		if trip, tripped, err := e.trip(types.BreakerSectorExposure, reason); err != nil {
			return nil, err
		} else if tripped {
			trips = append(trips, trip)
		}
	}

	if reason, breached, err := e.checkConsecutiveLosses(); err != nil {
		return nil, err
	} else if breached {
		if trip, tripped, err := e.trip(types.BreakerConsecutiveLosses, reason); err != nil {
			return nil, err
		} else if tripped {
			trips = append(trips, trip)
		}
	}

	return trips, nil
}

// checkDailyLoss compares realized plus unrealized daily P&L against the
// cost basis of priced open positions. With no cost basis the percentage is
// undefined and the breaker cannot trip this cycle.
func (e *Engine) checkDailyLoss(priced []types.Position) (string, bool) {
	realized, err := e.ledger.GetDailyRealizedPnL(e.clk.Now())
	if err != nil {
		e.log.Error("Failed to read daily realized pnl", zap.Error(err))

		return "", false
	}

	costBasis := decimal.Zero
	unrealized := decimal.Zero

	for _, pos := range priced {
		qty := decimal.NewFromInt(pos.Quantity)
		costBasis = costBasis.Add(pos.AvgEntryPrice.Mul(qty))
		unrealized = unrealized.Add(pos.CurrentPrice.Sub(pos.AvgEntryPrice).Mul(qty))
	}

	if !costBasis.IsPositive() {
		return "", false
	}

	pct, _ := realized.Add(unrealized).
		Div(costBasis).
		Mul(decimal.NewFromInt(100)).
		Float64()

	if pct <= e.cfg.DailyLossLimitPct {
		return fmt.Sprintf("daily pnl %.2f%% breached limit %.2f%%", pct, e.cfg.DailyLossLimitPct), true
	}

	return "", false
}

func (e *Engine) checkSectorExposure() (string, bool, error) {
	exposure, err := e.ledger.GetSectorExposure()
	if err != nil {
		return "", false, err
	}

	total := decimal.Zero
	for _, notional := range exposure {
		total = total.Add(notional)
	}

	if !total.IsPositive() {
		return "", false, nil
	}

	for sector, notional := range exposure {
		share, _ := notional.Div(total).Mul(decimal.NewFromInt(100)).Float64()
		if share > e.cfg.MaxSectorExposurePct {
			return fmt.Sprintf("sector %s holds %.2f%% of portfolio, limit %.2f%%",
				sector, share, e.cfg.MaxSectorExposurePct), true, nil
		}
	}

	return "", false, nil
}

func (e *Engine) checkConsecutiveLosses() (string, bool, error) {
	trades, err := e.ledger.GetRecentClosedTrades(e.cfg.ConsecutiveLossLimit)
	if err != nil {
		return "", false, err
	}

	if len(trades) < e.cfg.ConsecutiveLossLimit {
		return "", false, nil
	}

	for _, trade := range trades {
		if !trade.IsLoss() {
			return "", false, nil
		}
	}

	return fmt.Sprintf("%d consecutive losing trades", len(trades)), true, nil
}

// trip transitions a breaker to TRIPPED unless it already is. The second
// return reports whether a new record was created.
func (e *Engine) trip(breakerType types.BreakerType, reason string) (types.BreakerTrip, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.active[breakerType]; ok {
		return types.BreakerTrip{}, false, nil
	}

	record, err := e.store.Trip(breakerType, reason, e.clk.Now())
	if err != nil {
		return types.BreakerTrip{}, false, err
	}

	e.active[breakerType] = record

	e.log.Warn("Circuit breaker tripped",
		zap.String("breaker_type", string(breakerType)),
		zap.String("reason", reason),
	)

	return types.BreakerTrip{
		Type:      breakerType,
		Reason:    reason,
		TrippedAt: record.TrippedAt,
	}, true, nil
}
