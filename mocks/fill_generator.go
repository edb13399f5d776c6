package mocks

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
)

// FillGenerator produces realistic fill sequences for ledger and risk
// testing. Use a fixed seed for reproducible results.
type FillGenerator struct {
	rng *rand.Rand
}

// NewFillGenerator creates a generator seeded for reproducibility.
func NewFillGenerator(seed int64) *FillGenerator {
	return &FillGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures a generated fill sequence.
type GeneratorConfig struct {
	// Ticker is the instrument all fills trade.
	Ticker string
	// Region is the market the fills belong to.
	Region types.Region
	// Sector classifies the ticker for exposure tracking.
	Sector string
	// StartTime is the timestamp of the first fill.
	StartTime time.Time
	// Interval is the spacing between fills.
	Interval time.Duration
	// Count is the number of fills to generate.
	Count int
	// InitialPrice is the price of the first fill.
	InitialPrice float64
	// Volatility controls the per-fill price movement (0.01 = 1%).
	Volatility float64
	// LotSize is the quantity traded per fill.
	LotSize int64
	// FeeRate is applied to each fill's notional.
	FeeRate float64
}

// DefaultGeneratorConfig returns a sensible KR equity profile.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Ticker:       "005930",
		Region:       types.RegionKR,
		Sector:       "TECH",
		StartTime:    time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        100,
		InitialPrice: 70000,
		Volatility:   0.002,
		LotSize:      10,
		FeeRate:      0.00015,
	}
}

// Generate produces a fill sequence that alternates buys and sells along a
// random-walk price path. Buys always run ahead of sells, so applying the
// sequence to a ledger in order never oversells.
func (g *FillGenerator) Generate(config GeneratorConfig) []types.Fill {
	fills := make([]types.Fill, config.Count)
	price := config.InitialPrice
	at := config.StartTime
	openLots := int64(0)

	for i := 0; i < config.Count; i++ {
		// Box-Muller for normally distributed price moves.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
		price *= 1 + config.Volatility*z

		side := types.SideBuy
		if openLots > 0 && g.rng.Float64() < 0.4 {
			side = types.SideSell
		}

		if side == types.SideBuy {
			openLots++
		} else {
			openLots--
		}

		fillPrice := decimal.NewFromFloat(math.Round(price))
		notional := fillPrice.Mul(decimal.NewFromInt(config.LotSize))

		fills[i] = types.Fill{
			OrderID:   fmt.Sprintf("gen-%s-%04d", config.Ticker, i),
			Ticker:    config.Ticker,
			Region:    config.Region,
			Side:      side,
			Quantity:  config.LotSize,
			Price:     fillPrice,
			Fee:       notional.Mul(decimal.NewFromFloat(config.FeeRate)).Round(4),
			Sector:    config.Sector,
			Timestamp: at,
		}

		at = at.Add(config.Interval)
	}

	return fills
}
