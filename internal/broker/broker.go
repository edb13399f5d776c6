// Package broker defines the brokerage API surface the execution engine
// needs and provides a REST implementation plus a network-free dry-run
// implementation.
package broker

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
)

// OrderRequest is the payload sent to the brokerage. Price is already
// quantized to the region's tick grid by the time it reaches the broker.
type OrderRequest struct {
	ClientOrderID string           `json:"client_order_id"`
	AccountNumber string           `json:"account_number"`
	Ticker        string           `json:"ticker"`
	Region        types.Region     `json:"region"`
	Side          types.Side       `json:"side"`
	Style         types.OrderStyle `json:"order_style"`
	Quantity      int64            `json:"quantity"`
	Price         decimal.Decimal  `json:"price"`
}

// OrderResponse is the brokerage's answer to an order submission. A policy
// rejection is a valid response, not an error; errors are reserved for
// transport failures.
type OrderResponse struct {
	ExchangeOrderID string                           `json:"order_id"`
	Accepted        bool                             `json:"accepted"`
	Reason          string                           `json:"reason,omitempty"`
	FilledPrice     optional.Option[decimal.Decimal] `json:"filled_price,omitempty"`
	FilledQuantity  optional.Option[int64]           `json:"filled_quantity,omitempty"`
}

// Quote is a live price observation for one ticker.
type Quote struct {
	Ticker   string          `json:"ticker"`
	Region   types.Region    `json:"region"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`
}

// API abstracts brokerage operations. The access token is passed explicitly
// so the token lifecycle manager stays the single owner of credentials.
type API interface {
	// Name returns the broker identifier (e.g. "rest", "dry-run").
	Name() string

	// FetchToken exchanges app credentials for a fresh access token.
	FetchToken(ctx context.Context) (types.Credential, error)

	// GetQuote returns the latest traded price for a ticker.
	GetQuote(ctx context.Context, token string, region types.Region, ticker string) (Quote, error)

	// SubmitOrder sends an order to the brokerage for execution.
	SubmitOrder(ctx context.Context, token string, req OrderRequest) (OrderResponse, error)
}
