// Package pricesource provides live price lookups for risk evaluation.
// A price that cannot be observed is an error, never a substitute value.
package pricesource

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// PriceSource returns the latest traded price for a ticker.
type PriceSource interface {
	GetPrice(ctx context.Context, region types.Region, ticker string) (decimal.Decimal, error)
}

// TokenProvider supplies the access token for authenticated quote calls.
// Satisfied by the auth token manager.
type TokenProvider interface {
	GetToken(ctx context.Context, forceRefresh bool) (types.Credential, error)
}

// Compile-time interface check.
var _ PriceSource = (*BrokerageSource)(nil)

// BrokerageSource reads prices from the brokerage quote endpoint.
type BrokerageSource struct {
	api    broker.API
	tokens TokenProvider
}

// NewBrokerageSource creates a brokerage-backed price source.
func NewBrokerageSource(api broker.API, tokens TokenProvider) *BrokerageSource {
	return &BrokerageSource{api: api, tokens: tokens}
}

// GetPrice fetches the latest quote for the ticker.
func (s *BrokerageSource) GetPrice(ctx context.Context, region types.Region, ticker string) (decimal.Decimal, error) {
	cred, err := s.tokens.GetToken(ctx, false)
	if err != nil {
		return decimal.Zero, err
	}

	quote, err := s.api.GetQuote(ctx, cred.Token, region, ticker)
	if err != nil {
		return decimal.Zero, err
	}

	if !quote.Price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceUnavailable,
			"brokerage returned non-positive price %s for %s.%s", quote.Price, ticker, region)
	}

	return quote.Price, nil
}

// Routing dispatches price lookups to a per-region source, falling back to
// a default source for regions without an override.
type Routing struct {
	fallback  PriceSource
	overrides map[types.Region]PriceSource
}

// NewRouting creates a routing source with the given fallback.
func NewRouting(fallback PriceSource) *Routing {
	return &Routing{
		fallback:  fallback,
		overrides: make(map[types.Region]PriceSource),
	}
}

// Route directs lookups for a region to a dedicated source.
func (r *Routing) Route(region types.Region, src PriceSource) *Routing {
	r.overrides[region] = src

	return r
}

// GetPrice dispatches to the region's source.
func (r *Routing) GetPrice(ctx context.Context, region types.Region, ticker string) (decimal.Decimal, error) {
	if src, ok := r.overrides[region]; ok {
		return src.GetPrice(ctx, region, ticker)
	}

	return r.fallback.GetPrice(ctx, region, ticker)
}
