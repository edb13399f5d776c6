package pricesource

import (
	"context"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Compile-time interface check.
var _ PriceSource = (*PolygonSource)(nil)

// PolygonSource reads last-trade prices from Polygon. It only serves the US
// region; other regions must be routed to the brokerage source.
type PolygonSource struct {
	client *polygon.Client
}

// NewPolygonSource creates a Polygon-backed price source.
func NewPolygonSource(apiKey string) *PolygonSource {
	return &PolygonSource{client: polygon.New(apiKey)}
}

// GetPrice returns the last trade price for a US ticker.
func (s *PolygonSource) GetPrice(ctx context.Context, region types.Region, ticker string) (decimal.Decimal, error) {
	if region != types.RegionUS {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceUnavailable,
			"polygon serves US tickers only, got region %s", region)
	}

	res, err := s.client.GetLastTrade(ctx, &models.GetLastTradeParams{Ticker: ticker})
	if err != nil {
		return decimal.Zero, errors.Wrapf(errors.ErrCodePriceUnavailable, err,
			"polygon last trade lookup failed for %s", ticker)
	}

	price := decimal.NewFromFloat(res.Results.Price)
	if !price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodePriceUnavailable,
			"polygon returned non-positive price for %s", ticker)
	}

	return price, nil
}
