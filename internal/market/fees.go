package market

import (
	"github.com/shopspring/decimal"

	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// feeSchedule holds the per-side effective fee rates for a region. Sell
// rates include the transaction tax where one applies. Where the exact
// sub-market cannot be determined the table carries the worst-case (highest)
// rate so cash is never under-reserved.
type feeSchedule struct {
	Buy  decimal.Decimal
	Sell decimal.Decimal
}

func rates(buy, sell string) feeSchedule {
	return feeSchedule{
		Buy:  decimal.RequireFromString(buy),
		Sell: decimal.RequireFromString(sell),
	}
}

var feeSchedules = map[types.Region]feeSchedule{
	// KR: 0.015% commission each way, 0.23% transaction tax on sells.
	types.RegionKR: rates("0.00015", "0.00245"),
	// US: 0.25% commission, SEC fee on sells.
	types.RegionUS: rates("0.0025", "0.0025278"),
	types.RegionJP: rates("0.0025", "0.0025"),
	// HK: 0.13% stamp duty applies to both sides.
	types.RegionHK: rates("0.0038", "0.0038"),
	// CN: 0.1% stamp duty on sells.
	types.RegionCN: rates("0.0025", "0.0035"),
	types.RegionVN: rates("0.0025", "0.0035"),
}

// FeeRate returns the effective fee rate for the region and side.
func FeeRate(region types.Region, side types.Side) (decimal.Decimal, error) {
	schedule, ok := feeSchedules[region]
	if !ok {
		return decimal.Zero, errors.Newf(errors.ErrCodeMissingFeeTable, "no fee schedule for region %s", region)
	}

	switch side {
	case types.SideBuy:
		return schedule.Buy, nil
	case types.SideSell:
		return schedule.Sell, nil
	default:
		return decimal.Zero, errors.Newf(errors.ErrCodeUnsupportedSide, "unsupported order side %q", side)
	}
}

// EstimateFee decomposes a gross order amount into the net amount and fee.
//
// Buy side reserves cash up front, so the net investable amount is
// amount / (1 + rate). Sell side receives proceeds after the fee, so the
// net is amount * (1 - rate). In both cases fee = amount - net.
func EstimateFee(amount decimal.Decimal, side types.Side, region types.Region) (types.FeeEstimate, error) {
	if amount.IsNegative() {
		return types.FeeEstimate{}, errors.Newf(errors.ErrCodeInvalidParameter, "cannot estimate fee for negative amount %s", amount)
	}

	rate, err := FeeRate(region, side)
	if err != nil {
		return types.FeeEstimate{}, err
	}

	var net decimal.Decimal

	switch side {
	case types.SideBuy:
		net = amount.Div(decimal.NewFromInt(1).Add(rate))
	case types.SideSell:
		net = amount.Mul(decimal.NewFromInt(1).Sub(rate))
	}

	return types.FeeEstimate{
		NetAmount: net,
		Fee:       amount.Sub(net),
		FeeRate:   rate,
	}, nil
}
