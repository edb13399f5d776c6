package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
)

type DuckDBLedgerTestSuite struct {
	suite.Suite
	ledger *DuckDBLedger
	day    time.Time
}

func TestDuckDBLedgerSuite(t *testing.T) {
	suite.Run(t, new(DuckDBLedgerTestSuite))
}

func (suite *DuckDBLedgerTestSuite) SetupTest() {
	l, err := NewDuckDBLedger(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.ledger = l
	suite.day = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
}

func (suite *DuckDBLedgerTestSuite) TearDownTest() {
	suite.Require().NoError(suite.ledger.Close())
}

func (suite *DuckDBLedgerTestSuite) buyFill(ticker string, qty int64, price int64, at time.Time) types.Fill {
	return types.Fill{
		OrderID:   "o-" + ticker,
		Ticker:    ticker,
		Region:    types.RegionKR,
		Side:      types.SideBuy,
		Quantity:  qty,
		Price:     decimal.NewFromInt(price),
		Fee:       decimal.NewFromInt(100),
		Sector:    "TECH",
		Timestamp: at,
	}
}

func (suite *DuckDBLedgerTestSuite) sellFill(ticker string, qty int64, price int64, at time.Time) types.Fill {
	f := suite.buyFill(ticker, qty, price, at)
	f.Side = types.SideSell

	return f
}

func (suite *DuckDBLedgerTestSuite) TestBuyOpensPosition() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 71300, suite.day)))

	positions, err := suite.ledger.GetOpenPositions()
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal("005930", positions[0].Ticker)
	suite.Equal(int64(10), positions[0].Quantity)
	suite.True(positions[0].AvgEntryPrice.Equal(decimal.NewFromInt(71300)))
	suite.True(positions[0].CurrentPrice.IsZero())
}

func (suite *DuckDBLedgerTestSuite) TestBuyAveragesEntryPrice() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 70000, suite.day)))
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 72000, suite.day.Add(time.Minute))))

	positions, err := suite.ledger.GetOpenPositions()
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal(int64(20), positions[0].Quantity)
	suite.True(positions[0].AvgEntryPrice.Equal(decimal.NewFromInt(71000)))
}

func (suite *DuckDBLedgerTestSuite) TestFullSellClosesPositionAndRealizesPnL() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 70000, suite.day)))
	suite.Require().NoError(suite.ledger.RecordFill(suite.sellFill("005930", 10, 72000, suite.day.Add(time.Hour))))

	positions, err := suite.ledger.GetOpenPositions()
	suite.Require().NoError(err)
	suite.Empty(positions)

	trades, err := suite.ledger.GetRecentClosedTrades(10)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	// (72000-70000)*10 - 100 fee
	suite.True(trades[0].RealizedPnL.Equal(decimal.NewFromInt(19900)))
	suite.False(trades[0].IsLoss())
}

func (suite *DuckDBLedgerTestSuite) TestPartialSellKeepsPosition() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 70000, suite.day)))
	suite.Require().NoError(suite.ledger.RecordFill(suite.sellFill("005930", 4, 69000, suite.day.Add(time.Hour))))

	positions, err := suite.ledger.GetOpenPositions()
	suite.Require().NoError(err)
	suite.Require().Len(positions, 1)
	suite.Equal(int64(6), positions[0].Quantity)

	trades, err := suite.ledger.GetRecentClosedTrades(10)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)
	suite.True(trades[0].IsLoss())
}

func (suite *DuckDBLedgerTestSuite) TestOversellRejected() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 70000, suite.day)))

	err := suite.ledger.RecordFill(suite.sellFill("005930", 11, 70000, suite.day.Add(time.Hour)))
	suite.Require().Error(err)

	// The failed sell must not have partially applied.
	positions, posErr := suite.ledger.GetOpenPositions()
	suite.Require().NoError(posErr)
	suite.Require().Len(positions, 1)
	suite.Equal(int64(10), positions[0].Quantity)
}

func (suite *DuckDBLedgerTestSuite) TestDailyRealizedPnLWindow() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 20, 70000, suite.day.Add(-48*time.Hour))))

	// Yesterday's loss is outside today's window.
	suite.Require().NoError(suite.ledger.RecordFill(suite.sellFill("005930", 10, 60000, suite.day.Add(-24*time.Hour))))
	suite.Require().NoError(suite.ledger.RecordFill(suite.sellFill("005930", 10, 72000, suite.day)))

	pnl, err := suite.ledger.GetDailyRealizedPnL(suite.day)
	suite.Require().NoError(err)
	suite.True(pnl.Equal(decimal.NewFromInt(19900)), "got %s", pnl)
}

func (suite *DuckDBLedgerTestSuite) TestSectorExposure() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 10, 70000, suite.day)))

	fin := suite.buyFill("055550", 100, 50000, suite.day)
	fin.Sector = "FINANCE"
	suite.Require().NoError(suite.ledger.RecordFill(fin))

	exposure, err := suite.ledger.GetSectorExposure()
	suite.Require().NoError(err)
	suite.Require().Len(exposure, 2)
	suite.True(exposure["TECH"].Equal(decimal.NewFromInt(700000)))
	suite.True(exposure["FINANCE"].Equal(decimal.NewFromInt(5000000)))
}

func (suite *DuckDBLedgerTestSuite) TestRecentClosedTradesOrderAndLimit() {
	suite.Require().NoError(suite.ledger.RecordFill(suite.buyFill("005930", 30, 70000, suite.day)))

	for i := 0; i < 3; i++ {
		at := suite.day.Add(time.Duration(i+1) * time.Hour)
		suite.Require().NoError(suite.ledger.RecordFill(suite.sellFill("005930", 10, 71000+int64(i), at)))
	}

	trades, err := suite.ledger.GetRecentClosedTrades(2)
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.True(trades[0].ClosedAt.After(trades[1].ClosedAt))
}
