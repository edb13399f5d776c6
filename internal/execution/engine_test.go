package execution

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/broker"
	"github.com/krx-lab/meridian-trading/internal/clock"
	"github.com/krx-lab/meridian-trading/internal/config"
	"github.com/krx-lab/meridian-trading/internal/ledger"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/ratelimit"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

type staticTokens struct{}

func (staticTokens) GetToken(_ context.Context, _ bool) (types.Credential, error) {
	return types.Credential{Token: "static-access-token-01"}, nil
}

type stubGate struct {
	tripped []types.BreakerType
}

func (g *stubGate) CanTrade() (bool, []types.BreakerType) {
	return len(g.tripped) == 0, g.tripped
}

type ExecutionEngineTestSuite struct {
	suite.Suite
	clk    *clock.Manual
	dryRun *broker.DryRunClient
	ledger *ledger.DuckDBLedger
	gate   *stubGate
	engine *Engine
}

func TestExecutionEngineSuite(t *testing.T) {
	suite.Run(t, new(ExecutionEngineTestSuite))
}

func (suite *ExecutionEngineTestSuite) SetupTest() {
	suite.clk = clock.NewManual(time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC))
	suite.dryRun = broker.NewDryRunClient(suite.clk)
	suite.gate = &stubGate{}

	l, err := ledger.NewDuckDBLedger(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ledger = l

	suite.engine = NewEngine(
		suite.dryRun,
		staticTokens{},
		ratelimit.NewProviderLimiter(20, 1000, suite.clk),
		suite.gate,
		suite.ledger,
		config.BrokerConfig{AccountNumber: "12345678-01"},
		suite.clk,
		logger.NewNopLogger(),
	)
}

func (suite *ExecutionEngineTestSuite) TearDownTest() {
	suite.Require().NoError(suite.ledger.Close())
}

func (suite *ExecutionEngineTestSuite) intent() types.OrderIntent {
	return types.OrderIntent{
		Ticker:      "005930",
		Region:      types.RegionKR,
		Side:        types.SideBuy,
		Quantity:    10,
		TargetPrice: decimal.NewFromInt(49999),
		OrderStyle:  types.OrderStyleLimit,
		Sector:      "TECH",
		Reason:      types.OrderReasonStrategy,
	}
}

func (suite *ExecutionEngineTestSuite) TestPrepareQuantizesAndEstimatesFee() {
	order, err := suite.engine.Prepare(suite.intent())
	suite.Require().NoError(err)

	// 49,999 KRW snaps down to the 50-won grid.
	suite.True(order.Price.Equal(decimal.NewFromInt(49950)))
	suite.True(order.Notional().Equal(decimal.NewFromInt(499500)))

	// KR buy-side fee is 0.015% of the net amount.
	expectedRate := decimal.NewFromFloat(0.00015)
	suite.True(order.FeeEstimate.FeeRate.Equal(expectedRate))
	suite.True(order.FeeEstimate.NetAmount.Add(order.FeeEstimate.Fee).Equal(order.Notional()))
}

func (suite *ExecutionEngineTestSuite) TestPrepareRejectsInvalidIntent() {
	bad := suite.intent()
	bad.Quantity = 0

	_, err := suite.engine.Prepare(bad)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidOrderIntent))
}

func (suite *ExecutionEngineTestSuite) TestSubmitDryRunEndToEnd() {
	result, err := suite.engine.Submit(context.Background(), suite.intent())
	suite.Require().NoError(err)
	suite.True(result.Success)
	suite.Equal(types.OrderStatusAcknowledged, result.Status)
	suite.Equal(types.FailureKindNone, result.FailureKind)

	price, takeErr := result.FilledPrice.Take()
	suite.Require().NoError(takeErr)
	suite.True(price.Equal(decimal.NewFromInt(49950)))

	// The acknowledged fill lands in the ledger.
	positions, err := suite.ledger.GetOpenPositions()
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal("005930", positions[0].Ticker)
	suite.Equal(int64(10), positions[0].Quantity)
	suite.Equal("TECH", positions[0].Sector)
}

func (suite *ExecutionEngineTestSuite) TestSubmitFailsFastWhenHalted() {
	suite.gate.tripped = []types.BreakerType{types.BreakerDailyLoss}

	result, err := suite.engine.Submit(context.Background(), suite.intent())
	suite.Require().Error(err)
	suite.True(errors.IsTradingHalted(err))
	suite.False(result.Success)
	suite.Equal(types.FailureKindHalted, result.FailureKind)

	// Nothing reached the broker.
	suite.Empty(suite.dryRun.Orders())
}

func (suite *ExecutionEngineTestSuite) TestSubmitSurfacesRejectionVerbatim() {
	// A market order with no seeded quote is rejected by the dry-run broker.
	market := suite.intent()
	market.OrderStyle = types.OrderStyleMarket
	market.TargetPrice = decimal.Zero

	result, err := suite.engine.Submit(context.Background(), market)
	suite.Require().NoError(err)
	suite.False(result.Success)
	suite.Equal(types.OrderStatusRejected, result.Status)
	suite.Equal(types.FailureKindRejected, result.FailureKind)
	suite.Contains(result.Message, "no market price")
}

func (suite *ExecutionEngineTestSuite) TestSubmitMarketOrderFillsAtQuote() {
	suite.dryRun.SetQuote(types.RegionKR, "005930", decimal.NewFromInt(71300))

	market := suite.intent()
	market.OrderStyle = types.OrderStyleMarket
	market.TargetPrice = decimal.Zero

	result, err := suite.engine.Submit(context.Background(), market)
	suite.Require().NoError(err)
	suite.True(result.Success)

	price, takeErr := result.FilledPrice.Take()
	suite.Require().NoError(takeErr)
	suite.True(price.Equal(decimal.NewFromInt(71300)))
}

func (suite *ExecutionEngineTestSuite) TestSubmitCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := suite.engine.Submit(ctx, suite.intent())
	suite.Require().Error(err)
	suite.False(result.Success)
	suite.Equal(types.FailureKindTransport, result.FailureKind)
}
