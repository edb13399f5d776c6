package broker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Compile-time interface check.
var _ API = (*DryRunClient)(nil)

// DryRunClient implements API without any network. Orders are acknowledged
// and filled deterministically so the full submission pipeline can run in
// paper-trading mode with structurally identical results.
type DryRunClient struct {
	mu sync.Mutex

	clk    clock.Clock
	quotes map[string]decimal.Decimal
	orders map[string]OrderRequest

	// FillLimit caps the quantity filled per order. Zero means fill in full.
	FillLimit int64
}

// NewDryRunClient creates a dry-run broker.
func NewDryRunClient(clk clock.Clock) *DryRunClient {
	return &DryRunClient{
		clk:    clk,
		quotes: make(map[string]decimal.Decimal),
		orders: make(map[string]OrderRequest),
	}
}

// Name returns "dry-run".
func (c *DryRunClient) Name() string {
	return "dry-run"
}

// SetQuote seeds the simulated market price for a ticker.
func (c *DryRunClient) SetQuote(region types.Region, ticker string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.quotes[quoteKey(region, ticker)] = price
}

// FetchToken returns a synthetic credential valid for 24 hours.
func (c *DryRunClient) FetchToken(_ context.Context) (types.Credential, error) {
	now := c.clk.Now()

	return types.Credential{
		Token:     fmt.Sprintf("dry-run-%s", uuid.New().String()),
		IssuedAt:  now,
		ExpiresAt: now.Add(24 * time.Hour),
		PID:       os.Getpid(),
	}, nil
}

// GetQuote returns the seeded price for a ticker, or a price-unavailable
// error when none was seeded. Missing prices must never be invented.
func (c *DryRunClient) GetQuote(_ context.Context, _ string, region types.Region, ticker string) (Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	price, ok := c.quotes[quoteKey(region, ticker)]
	if !ok {
		return Quote{}, errors.Newf(errors.ErrCodePriceUnavailable,
			"no simulated quote for %s.%s", ticker, region)
	}

	return Quote{
		Ticker:   ticker,
		Region:   region,
		Price:    price,
		Currency: region.Currency(),
		AsOf:     c.clk.Now(),
	}, nil
}

// SubmitOrder acknowledges the order and fills it at the limit price, or at
// the seeded quote for market orders. Market orders with no seeded quote are
// rejected rather than filled at a made-up price.
func (c *DryRunClient) SubmitOrder(_ context.Context, _ string, req OrderRequest) (OrderResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fillPrice := req.Price
	if req.Style == types.OrderStyleMarket {
		quote, ok := c.quotes[quoteKey(req.Region, req.Ticker)]
		if !ok {
			return OrderResponse{
				Accepted: false,
				Reason:   fmt.Sprintf("no market price for %s.%s", req.Ticker, req.Region),
			}, nil
		}

		fillPrice = quote
	}

	filled := req.Quantity
	if c.FillLimit > 0 && filled > c.FillLimit {
		filled = c.FillLimit
	}

	exchangeID := uuid.New().String()
	c.orders[exchangeID] = req

	return OrderResponse{
		ExchangeOrderID: exchangeID,
		Accepted:        true,
		FilledPrice:     optional.Some(fillPrice),
		FilledQuantity:  optional.Some(filled),
	}, nil
}

// Orders returns a copy of every order submitted so far.
func (c *DryRunClient) Orders() map[string]OrderRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OrderRequest, len(c.orders))
	for id, req := range c.orders {
		out[id] = req
	}

	return out
}

func quoteKey(region types.Region, ticker string) string {
	return fmt.Sprintf("%s:%s", region, ticker)
}
