package mocks

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/krx-lab/meridian-trading/internal/ledger"
	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
)

type FillGeneratorTestSuite struct {
	suite.Suite
}

func TestFillGeneratorSuite(t *testing.T) {
	suite.Run(t, new(FillGeneratorTestSuite))
}

func (suite *FillGeneratorTestSuite) TestReproducibleWithSameSeed() {
	cfg := DefaultGeneratorConfig()

	first := NewFillGenerator(42).Generate(cfg)
	second := NewFillGenerator(42).Generate(cfg)

	suite.Require().Len(first, cfg.Count)
	suite.Equal(first, second)
}

func (suite *FillGeneratorTestSuite) TestNeverOversells() {
	fills := NewFillGenerator(7).Generate(DefaultGeneratorConfig())

	open := int64(0)
	for _, fill := range fills {
		if fill.Side == types.SideBuy {
			open += fill.Quantity
		} else {
			open -= fill.Quantity
		}

		suite.GreaterOrEqual(open, int64(0))
	}
}

// The generated sequence applies cleanly to a real ledger.
func (suite *FillGeneratorTestSuite) TestAppliesToLedger() {
	book, err := ledger.NewDuckDBLedger(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer book.Close()

	cfg := DefaultGeneratorConfig()
	fills := NewFillGenerator(99).Generate(cfg)

	buys, sells := int64(0), int64(0)

	for _, fill := range fills {
		suite.Require().NoError(book.RecordFill(fill))

		if fill.Side == types.SideBuy {
			buys += fill.Quantity
		} else {
			sells += fill.Quantity
		}
	}

	positions, err := book.GetOpenPositions()
	suite.Require().NoError(err)

	remaining := int64(0)
	for _, pos := range positions {
		remaining += pos.Quantity
	}

	suite.Equal(buys-sells, remaining)
}
