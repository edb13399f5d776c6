// Package market holds the per-region exchange rules the execution engine
// must never violate: tick-size grids and fee schedules. Adding a region is
// adding table rows, not code.
package market

import (
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// tickBand is one price band of a tick table. Upper is exclusive; a zero
// Upper marks the unbounded top band.
type tickBand struct {
	Upper decimal.Decimal
	Step  decimal.Decimal
}

func band(upper string, step string) tickBand {
	return tickBand{
		Upper: decimal.RequireFromString(upper),
		Step:  decimal.RequireFromString(step),
	}
}

func topBand(step string) tickBand {
	return tickBand{
		Upper: decimal.Zero,
		Step:  decimal.RequireFromString(step),
	}
}

// tickTables maps each region to its ascending price bands.
var tickTables = map[types.Region][]tickBand{
	types.RegionKR: {
		band("1000", "1"),
		band("10000", "5"),
		band("50000", "50"),
		band("100000", "100"),
		band("500000", "500"),
		topBand("1000"),
	},
	types.RegionUS: {
		band("1", "0.0001"),
		topBand("0.01"),
	},
	types.RegionJP: {
		band("3000", "1"),
		band("5000", "5"),
		band("30000", "10"),
		band("50000", "50"),
		topBand("100"),
	},
	types.RegionHK: {
		band("0.25", "0.001"),
		band("0.5", "0.005"),
		band("10", "0.01"),
		band("20", "0.02"),
		band("100", "0.05"),
		band("200", "0.1"),
		band("500", "0.2"),
		band("1000", "0.5"),
		band("2000", "1"),
		band("5000", "2"),
		topBand("5"),
	},
	types.RegionCN: {
		topBand("0.01"),
	},
	types.RegionVN: {
		band("10000", "10"),
		band("50000", "50"),
		topBand("100"),
	},
}

// TickSize returns the minimum legal price increment for the given price in
// the given region.
func TickSize(price decimal.Decimal, region types.Region) (decimal.Decimal, error) {
	table, ok := tickTables[region]
	if !ok {
		return decimal.Zero, errors.Newf(errors.ErrCodeMissingTickTable, "no tick table for region %s", region)
	}

	for _, b := range table {
		if b.Upper.IsZero() || price.LessThan(b.Upper) {
			return b.Step, nil
		}
	}

	// Unreachable: every table ends with an unbounded band.
	return table[len(table)-1].Step, nil
}

// Quantize snaps price down to the region's tick grid. Rounding is always
// toward zero (floor to the grid): a buy never bids above the requested
// price and the result is idempotent under re-quantization.
func Quantize(price decimal.Decimal, region types.Region) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidPrice, "cannot quantize negative price %s", price)
	}

	step, err := TickSize(price, region)
	if err != nil {
		return decimal.Zero, err
	}

	return price.Div(step).Floor().Mul(step), nil
}

// EnsureRegion verifies that both the tick table and the fee schedule exist
// for the region. The engine refuses to initialize for a region it cannot
// price correctly.
func EnsureRegion(region types.Region) error {
	if _, ok := tickTables[region]; !ok {
		return errors.Newf(errors.ErrCodeMissingTickTable, "no tick table for region %s", region)
	}

	if _, ok := feeSchedules[region]; !ok {
		return errors.Newf(errors.ErrCodeMissingFeeTable, "no fee schedule for region %s", region)
	}

	return nil
}
