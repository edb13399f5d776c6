// Package trading wires the token manager, rate limiter, execution engine,
// ledger, and risk engine into one system and exposes the operations the
// strategy layer and CLI consume.
package trading

import (
	"context"

	"github.com/krx-lab/meridian-trading/internal/auth"
	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/execution"
	"github.com/krx-lab/meridian-trading/internal/ledger"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/pricesource"
	"github.com/krx-lab/meridian-trading/internal/ratelimit"
	"github.com/krx-lab/meridian-trading/internal/risk"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// TradingSystem is the assembled trading core.
type TradingSystem struct {
	api       broker.API
	tokens    *auth.Manager
	execution *execution.Engine
	risk      *risk.Engine
	ledger    ledger.Ledger
	log       *logger.Logger
}

// NewTradingSystem builds the full system from configuration. With
// cfg.DryRun set, the brokerage client is replaced by the network-free
// dry-run broker and order flow becomes paper trading.
func NewTradingSystem(cfg *config.Config, clk clock.Clock, log *logger.Logger) (*TradingSystem, error) {
	var api broker.API
	if cfg.DryRun {
		api = broker.NewDryRunClient(clk)
	} else {
		api = broker.NewRestClient(cfg.Broker, clk, log)
	}

	store := auth.NewCredentialStore(cfg.Auth.CredentialPath)
	tokens := auth.NewManager(store, api, clk, log, auth.ManagerConfig{
		SafetyBuffer:  cfg.Auth.SafetyBuffer(),
		RefreshWindow: cfg.Auth.RefreshWindow(),
	})

	book, err := ledger.NewDuckDBLedger(cfg.Ledger.Path, log)
	if err != nil {
		return nil, err
	}

	breakers, err := risk.NewDuckDBBreakerStore(book.DB())
	if err != nil {
		book.Close()

		return nil, err
	}

	var prices pricesource.PriceSource = pricesource.NewBrokerageSource(api, tokens)
	if cfg.PriceSource.PolygonAPIKey != "" {
		prices = pricesource.NewRouting(prices).
			Route(types.RegionUS, pricesource.NewPolygonSource(cfg.PriceSource.PolygonAPIKey))
	}

	riskEngine, err := risk.NewEngine(book, prices, breakers, cfg.Risk, clk, log)
	if err != nil {
		book.Close()

		return nil, err
	}

	limiter := ratelimit.NewProviderLimiter(cfg.RateLimit.MaxPerSecond, cfg.RateLimit.MaxPerMinute, clk)
	engine := execution.NewEngine(api, tokens, limiter, riskEngine, book, cfg.Broker, clk, log)

	return &TradingSystem{
		api:       api,
		tokens:    tokens,
		execution: engine,
		risk:      riskEngine,
		ledger:    book,
		log:       log,
	}, nil
}

// SubmitOrder runs one intent through the full submission pipeline.
func (s *TradingSystem) SubmitOrder(ctx context.Context, intent types.OrderIntent) (types.OrderResult, error) {
	return s.execution.Submit(ctx, intent)
}

// GetTokenStatus reports the credential's health.
func (s *TradingSystem) GetTokenStatus() types.TokenStatus {
	return s.tokens.Status()
}

// EvaluateRisk runs one risk cycle on demand.
func (s *TradingSystem) EvaluateRisk(ctx context.Context) (types.RiskReport, error) {
	return s.risk.Evaluate(ctx)
}

// RunRiskLoop polls risk evaluation until ctx is cancelled.
func (s *TradingSystem) RunRiskLoop(ctx context.Context) error {
	return s.risk.Run(ctx)
}

// CanTrade reports whether order submission is currently allowed.
func (s *TradingSystem) CanTrade() (bool, []types.BreakerType) {
	return s.risk.CanTrade()
}

// ActiveBreakers returns the currently tripped circuit breakers.
func (s *TradingSystem) ActiveBreakers() []types.CircuitBreakerRecord {
	return s.risk.ActiveBreakers()
}

// RecoverBreaker clears a tripped breaker on behalf of an operator.
func (s *TradingSystem) RecoverBreaker(breakerType types.BreakerType, operator string) error {
	return s.risk.Recover(breakerType, operator)
}

// GetOpenPositions returns the ledger's open positions.
func (s *TradingSystem) GetOpenPositions() ([]types.Position, error) {
	return s.ledger.GetOpenPositions()
}

// ClosePosition submits a market sell for the full open quantity of a
// position. The order runs the normal pipeline, so a tripped breaker still
// blocks it.
func (s *TradingSystem) ClosePosition(ctx context.Context, region types.Region, ticker, reason string) (types.OrderResult, error) {
	positions, err := s.ledger.GetOpenPositions()
	if err != nil {
		return types.OrderResult{}, err
	}

	for _, pos := range positions {
		if pos.Ticker != ticker || pos.Region != region {
			continue
		}

		return s.execution.Submit(ctx, types.OrderIntent{
			Ticker:     ticker,
			Region:     region,
			Side:       types.SideSell,
			Quantity:   pos.Quantity,
			OrderStyle: types.OrderStyleMarket,
			Sector:     pos.Sector,
			Reason:     reason,
		})
	}

	return types.OrderResult{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s.%s", ticker, region)
}

// DryRunBroker returns the simulated broker when the system was built with
// DryRun, so callers can seed market prices. Nil otherwise.
func (s *TradingSystem) DryRunBroker() *broker.DryRunClient {
	if dry, ok := s.api.(*broker.DryRunClient); ok {
		return dry
	}

	return nil
}

// Close releases held resources.
func (s *TradingSystem) Close() error {
	return s.ledger.Close()
}
