// Package execution turns order intents into exchange submissions: price
// quantization, fee estimation, the risk gate, token acquisition, rate
// limiting, and result classification.
package execution

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/ledger"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/market"
	"github.com/krx-lab/meridian-trading/internal/ratelimit"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// TokenProvider supplies the access credential for exchange calls.
// Satisfied by the auth token manager.
type TokenProvider interface {
	GetToken(ctx context.Context, forceRefresh bool) (types.Credential, error)
}

// RiskGate is the fast halt check consulted before every submission.
// Satisfied by the risk engine.
type RiskGate interface {
	CanTrade() (bool, []types.BreakerType)
}

// Engine submits orders. Rejections from the exchange are terminal and come
// back classified, never retried here.
type Engine struct {
	api     broker.API
	tokens  TokenProvider
	limiter ratelimit.Limiter
	risk    RiskGate
	ledger  ledger.Ledger
	cfg     config.BrokerConfig
	clk     clock.Clock
	log     *logger.Logger
}

// NewEngine wires the submission pipeline.
func NewEngine(api broker.API, tokens TokenProvider, limiter ratelimit.Limiter, risk RiskGate, l ledger.Ledger, cfg config.BrokerConfig, clk clock.Clock, log *logger.Logger) *Engine {
	return &Engine{
		api:     api,
		tokens:  tokens,
		limiter: limiter,
		risk:    risk,
		ledger:  l,
		cfg:     cfg,
		clk:     clk,
		log:     log,
	}
}

// Prepare validates an intent and snaps it to the exchange grid: tick
// quantization for limit prices and the exact fee decomposition of the
// resulting notional.
func (e *Engine) Prepare(intent types.OrderIntent) (types.QuantizedOrder, error) {
	if err := intent.Validate(); err != nil {
		return types.QuantizedOrder{}, err
	}

	if err := market.EnsureRegion(intent.Region); err != nil {
		return types.QuantizedOrder{}, err
	}

	price := intent.TargetPrice

	if intent.OrderStyle == types.OrderStyleLimit {
		quantized, err := market.Quantize(intent.TargetPrice, intent.Region)
		if err != nil {
			return types.QuantizedOrder{}, err
		}

		price = quantized
	}

	order := types.QuantizedOrder{
		ID:         uuid.New().String(),
		Ticker:     intent.Ticker,
		Region:     intent.Region,
		Side:       intent.Side,
		Quantity:   intent.Quantity,
		Price:      price,
		OrderStyle: intent.OrderStyle,
		Sector:     intent.Sector,
		Reason:     intent.Reason,
		CreatedAt:  e.clk.Now(),
	}

	if price.IsPositive() {
		estimate, err := market.EstimateFee(order.Notional(), order.Side, order.Region)
		if err != nil {
			return types.QuantizedOrder{}, err
		}

		order.FeeEstimate = estimate
	}

	return order, nil
}

// Submit runs the full pipeline for one intent. The returned result is
// always meaningful; the error carries the structured cause when the result
// is not a success.
func (e *Engine) Submit(ctx context.Context, intent types.OrderIntent) (types.OrderResult, error) {
	order, err := e.Prepare(intent)
	if err != nil {
		return types.OrderResult{
			Status:  types.OrderStatusCreated,
			Message: err.Error(),
		}, err
	}

	// Fail fast before any network work when trading is halted.
	if ok, tripped := e.risk.CanTrade(); !ok {
		names := make([]string, len(tripped))
		for i, breakerType := range tripped {
			names[i] = string(breakerType)
		}

		haltErr := errors.NewTradingHaltedErrorf(names, "trading halted, %d breaker(s) tripped", len(tripped))

		e.log.Warn("Order blocked by circuit breakers",
			zap.String("order_id", order.ID),
			zap.Strings("breakers", names),
		)

		return types.OrderResult{
			OrderID:     order.ID,
			Status:      types.OrderStatusQuantized,
			Message:     haltErr.Error(),
			FailureKind: types.FailureKindHalted,
		}, haltErr
	}

	cred, err := e.tokens.GetToken(ctx, false)
	if err != nil {
		return types.OrderResult{
			OrderID:     order.ID,
			Status:      types.OrderStatusQuantized,
			Message:     err.Error(),
			FailureKind: types.FailureKindTransport,
		}, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return types.OrderResult{
			OrderID:     order.ID,
			Status:      types.OrderStatusQuantized,
			Message:     err.Error(),
			FailureKind: types.FailureKindTransport,
		}, err
	}

	resp, err := e.api.SubmitOrder(ctx, cred.Token, broker.OrderRequest{
		ClientOrderID: order.ID,
		AccountNumber: e.cfg.AccountNumber,
		Ticker:        order.Ticker,
		Region:        order.Region,
		Side:          order.Side,
		Style:         order.OrderStyle,
		Quantity:      order.Quantity,
		Price:         order.Price,
	})
	if err != nil {
		e.log.Error("Order submission transport failure",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)

		return types.OrderResult{
			OrderID:     order.ID,
			Status:      types.OrderStatusSubmitted,
			Message:     err.Error(),
			FailureKind: types.FailureKindTransport,
		}, err
	}

	if !resp.Accepted {
		e.log.Warn("Order rejected by exchange",
			zap.String("order_id", order.ID),
			zap.String("reason", resp.Reason),
		)

		return types.OrderResult{
			OrderID:     order.ID,
			Status:      types.OrderStatusRejected,
			Message:     resp.Reason,
			FailureKind: types.FailureKindRejected,
		}, nil
	}

	result := types.OrderResult{
		Success:        true,
		OrderID:        order.ID,
		Status:         types.OrderStatusAcknowledged,
		FilledPrice:    resp.FilledPrice,
		FilledQuantity: resp.FilledQuantity,
	}

	if err := e.recordFill(order, resp); err != nil {
		e.log.Error("Failed to record fill",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)

		return result, errors.Wrap(errors.ErrCodeFillRecordFailed, "order acknowledged but fill not recorded", err)
	}

	e.log.Info("Order acknowledged",
		zap.String("order_id", order.ID),
		zap.String("exchange_order_id", resp.ExchangeOrderID),
		zap.String("ticker", order.Ticker),
		zap.String("region", string(order.Region)),
		zap.String("side", string(order.Side)),
	)

	return result, nil
}

func (e *Engine) recordFill(order types.QuantizedOrder, resp broker.OrderResponse) error {
	price := resp.FilledPrice.TakeOr(order.Price)
	quantity := resp.FilledQuantity.TakeOr(order.Quantity)

	if !price.IsPositive() || quantity <= 0 {
		// Acknowledged with nothing filled yet; nothing to book.
		return nil
	}

	notional := price.Mul(decimal.NewFromInt(quantity))

	estimate, err := market.EstimateFee(notional, order.Side, order.Region)
	if err != nil {
		return err
	}

	return e.ledger.RecordFill(types.Fill{
		OrderID:   order.ID,
		Ticker:    order.Ticker,
		Region:    order.Region,
		Side:      order.Side,
		Quantity:  quantity,
		Price:     price,
		Fee:       estimate.Fee,
		Sector:    order.Sector,
		Timestamp: e.clk.Now(),
	})
}
