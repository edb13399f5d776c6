package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/pkg/errors"
)

type Side string

type OrderStyle string

type OrderStatus string

// FailureKind classifies a failed submission so the caller can pick the
// right remediation: recover a breaker, react to the exchange's decision,
// or retry the transport.
type FailureKind string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderStyleLimit  OrderStyle = "LIMIT"
	OrderStyleMarket OrderStyle = "MARKET"
)

// Per-order lifecycle. REJECTED is terminal; the engine never retries a
// rejected order on its own.
const (
	OrderStatusCreated      OrderStatus = "CREATED"
	OrderStatusQuantized    OrderStatus = "QUANTIZED"
	OrderStatusSubmitted    OrderStatus = "SUBMITTED"
	OrderStatusAcknowledged OrderStatus = "ACKNOWLEDGED"
	OrderStatusRejected     OrderStatus = "REJECTED"
)

const (
	FailureKindNone      FailureKind = ""
	FailureKindHalted    FailureKind = "HALTED"    // not attempted, breaker tripped
	FailureKindRejected  FailureKind = "REJECTED"  // exchange business rejection
	FailureKindTransport FailureKind = "TRANSPORT" // network/timeout failure
)

const (
	OrderReasonStrategy   string = "strategy"
	OrderReasonStopLoss   string = "stop_loss"
	OrderReasonTakeProfit string = "take_profit"
	OrderReasonManual     string = "manual"
)

// OrderIntent is a desired trade handed in by the strategy layer. It is
// consumed once by the execution engine and not persisted beyond the call.
type OrderIntent struct {
	Ticker      string          `yaml:"ticker" json:"ticker" validate:"required"`
	Region      Region          `yaml:"region" json:"region" validate:"required,oneof=KR US JP HK CN VN"`
	Side        Side            `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity    int64           `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	TargetPrice decimal.Decimal `yaml:"target_price" json:"target_price"`
	OrderStyle  OrderStyle      `yaml:"order_style" json:"order_style" validate:"required,oneof=LIMIT MARKET"`
	// Sector classifies the ticker for exposure tracking. Optional; empty
	// means unclassified.
	Sector string `yaml:"sector" json:"sector"`
	// Reason records why the order was created (strategy, stop_loss, ...).
	Reason string `yaml:"reason" json:"reason"`
}

// Validate validates the OrderIntent struct.
func (oi *OrderIntent) Validate() error {
	validate := validator.New()
	if err := validate.Struct(oi); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrderIntent, "invalid order intent", err)
	}

	// Limit orders need a positive target price; market orders carry the
	// last quote instead, which may be zero until quantization.
	if oi.OrderStyle == OrderStyleLimit && !oi.TargetPrice.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidPrice, "limit order for %s requires a positive target price", oi.Ticker)
	}

	return nil
}

// FeeEstimate is the exact fee decomposition of an order's notional amount.
type FeeEstimate struct {
	NetAmount decimal.Decimal `yaml:"net_amount" json:"net_amount"`
	Fee       decimal.Decimal `yaml:"fee" json:"fee"`
	FeeRate   decimal.Decimal `yaml:"fee_rate" json:"fee_rate"`
}

// QuantizedOrder is an OrderIntent whose price has been snapped to the
// exchange tick grid, with the fee estimate attached. Immutable once built.
type QuantizedOrder struct {
	ID          string          `yaml:"id" json:"id" validate:"required,uuid"`
	Ticker      string          `yaml:"ticker" json:"ticker" validate:"required"`
	Region      Region          `yaml:"region" json:"region" validate:"required,oneof=KR US JP HK CN VN"`
	Side        Side            `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity    int64           `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Price       decimal.Decimal `yaml:"price" json:"price"`
	OrderStyle  OrderStyle      `yaml:"order_style" json:"order_style" validate:"required,oneof=LIMIT MARKET"`
	FeeEstimate FeeEstimate     `yaml:"fee_estimate" json:"fee_estimate"`
	Sector      string          `yaml:"sector" json:"sector"`
	Reason      string          `yaml:"reason" json:"reason"`
	CreatedAt   time.Time       `yaml:"created_at" json:"created_at"`
}

// Notional returns price * quantity.
func (qo *QuantizedOrder) Notional() decimal.Decimal {
	return qo.Price.Mul(decimal.NewFromInt(qo.Quantity))
}

// OrderResult is the structured outcome of a submission attempt.
type OrderResult struct {
	Success bool        `yaml:"success" json:"success"`
	OrderID string      `yaml:"order_id" json:"order_id"`
	Status  OrderStatus `yaml:"status" json:"status"`
	// FilledPrice is set only when the exchange reported a fill.
	FilledPrice optional.Option[decimal.Decimal] `yaml:"filled_price" json:"filled_price"`
	// FilledQuantity is set only when the exchange reported a fill.
	FilledQuantity optional.Option[int64] `yaml:"filled_quantity" json:"filled_quantity"`
	// Message carries the exchange's reason string untranslated on rejection.
	Message     string      `yaml:"message" json:"message"`
	FailureKind FailureKind `yaml:"failure_kind" json:"failure_kind"`
}
