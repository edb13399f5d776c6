package ledger

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krx-lab/meridian-trading/internal/logger"
	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// Compile-time interface check.
var _ Ledger = (*DuckDBLedger)(nil)

// DuckDBLedger persists positions, fills, and closed trades in a DuckDB
// database. Pass ":memory:" as the path for an ephemeral ledger.
type DuckDBLedger struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBLedger opens (or creates) the ledger database at path.
func NewDuckDBLedger(path string, log *logger.Logger) (*DuckDBLedger, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to open ledger database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to connect to ledger database", err)
	}

	l := &DuckDBLedger{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := l.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return l, nil
}

func (l *DuckDBLedger) initialize() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			id TEXT PRIMARY KEY,
			order_id TEXT,
			ticker TEXT,
			region TEXT,
			side TEXT,
			quantity BIGINT,
			price DOUBLE,
			fee DOUBLE,
			sector TEXT,
			filled_at TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS positions (
			ticker TEXT,
			region TEXT,
			quantity BIGINT,
			avg_entry_price DOUBLE,
			sector TEXT,
			opened_at TIMESTAMP,
			PRIMARY KEY (ticker, region)
		);
		CREATE TABLE IF NOT EXISTS closed_trades (
			id TEXT PRIMARY KEY,
			ticker TEXT,
			region TEXT,
			quantity BIGINT,
			entry_price DOUBLE,
			exit_price DOUBLE,
			realized_pnl DOUBLE,
			closed_at TIMESTAMP
		);
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create ledger tables", err)
	}

	return nil
}

// RecordFill applies one execution report atomically.
func (l *DuckDBLedger) RecordFill(fill types.Fill) error {
	tx, err := l.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin ledger transaction", err)
	}

	if err := l.recordFillTx(tx, fill); err != nil {
		tx.Rollback()

		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit ledger transaction", err)
	}

	l.logger.Info("Recorded fill",
		zap.String("order_id", fill.OrderID),
		zap.String("ticker", fill.Ticker),
		zap.String("region", string(fill.Region)),
		zap.String("side", string(fill.Side)),
		zap.Int64("quantity", fill.Quantity),
		zap.String("price", fill.Price.String()),
	)

	return nil
}

func (l *DuckDBLedger) recordFillTx(tx *sql.Tx, fill types.Fill) error {
	price, _ := fill.Price.Float64()
	fee, _ := fill.Fee.Float64()

	insertFill := l.sq.
		Insert("fills").
		Columns("id", "order_id", "ticker", "region", "side", "quantity", "price", "fee", "sector", "filled_at").
		Values(uuid.New().String(), fill.OrderID, fill.Ticker, string(fill.Region), string(fill.Side),
			fill.Quantity, price, fee, fill.Sector, fill.Timestamp).
		RunWith(tx)

	if _, err := insertFill.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert fill", err)
	}

	switch fill.Side {
	case types.SideBuy:
		return l.applyBuy(tx, fill)
	case types.SideSell:
		return l.applySell(tx, fill)
	default:
		return errors.Newf(errors.ErrCodeUnsupportedSide, "unsupported fill side %q", fill.Side)
	}
}

func (l *DuckDBLedger) applyBuy(tx *sql.Tx, fill types.Fill) error {
	existing, found, err := l.positionTx(tx, fill.Ticker, fill.Region)
	if err != nil {
		return err
	}

	if !found {
		price, _ := fill.Price.Float64()

		insert := l.sq.
			Insert("positions").
			Columns("ticker", "region", "quantity", "avg_entry_price", "sector", "opened_at").
			Values(fill.Ticker, string(fill.Region), fill.Quantity, price, fill.Sector, fill.Timestamp).
			RunWith(tx)

		if _, err := insert.Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert position", err)
		}

		return nil
	}

	// Weighted average entry across the old position and the new fill.
	oldQty := decimal.NewFromInt(existing.Quantity)
	newQty := decimal.NewFromInt(fill.Quantity)
	totalQty := existing.Quantity + fill.Quantity

	avg := existing.AvgEntryPrice.Mul(oldQty).
		Add(fill.Price.Mul(newQty)).
		Div(decimal.NewFromInt(totalQty))
	avgF, _ := avg.Float64()

	update := l.sq.
		Update("positions").
		Set("quantity", totalQty).
		Set("avg_entry_price", avgF).
		Where(squirrel.Eq{"ticker": fill.Ticker, "region": string(fill.Region)}).
		RunWith(tx)

	if _, err := update.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to update position", err)
	}

	return nil
}

func (l *DuckDBLedger) applySell(tx *sql.Tx, fill types.Fill) error {
	existing, found, err := l.positionTx(tx, fill.Ticker, fill.Region)
	if err != nil {
		return err
	}

	if !found || existing.Quantity < fill.Quantity {
		return errors.Newf(errors.ErrCodeStoreWriteFailed,
			"sell of %d %s.%s exceeds open position", fill.Quantity, fill.Ticker, fill.Region)
	}

	qty := decimal.NewFromInt(fill.Quantity)
	realized := fill.Price.Sub(existing.AvgEntryPrice).Mul(qty).Sub(fill.Fee)

	entryF, _ := existing.AvgEntryPrice.Float64()
	exitF, _ := fill.Price.Float64()
	realizedF, _ := realized.Float64()

	insert := l.sq.
		Insert("closed_trades").
		Columns("id", "ticker", "region", "quantity", "entry_price", "exit_price", "realized_pnl", "closed_at").
		Values(uuid.New().String(), fill.Ticker, string(fill.Region), fill.Quantity,
			entryF, exitF, realizedF, fill.Timestamp).
		RunWith(tx)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert closed trade", err)
	}

	remaining := existing.Quantity - fill.Quantity
	if remaining == 0 {
		del := l.sq.
			Delete("positions").
			Where(squirrel.Eq{"ticker": fill.Ticker, "region": string(fill.Region)}).
			RunWith(tx)

		if _, err := del.Exec(); err != nil {
			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to delete closed position", err)
		}

		return nil
	}

	update := l.sq.
		Update("positions").
		Set("quantity", remaining).
		Where(squirrel.Eq{"ticker": fill.Ticker, "region": string(fill.Region)}).
		RunWith(tx)

	if _, err := update.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to update position", err)
	}

	return nil
}

func (l *DuckDBLedger) positionTx(tx *sql.Tx, ticker string, region types.Region) (types.Position, bool, error) {
	query := l.sq.
		Select("ticker", "region", "quantity", "avg_entry_price", "sector", "opened_at").
		From("positions").
		Where(squirrel.Eq{"ticker": ticker, "region": string(region)}).
		RunWith(tx)

	pos, err := scanPosition(query.QueryRow())
	if err == sql.ErrNoRows {
		return types.Position{}, false, nil
	}

	if err != nil {
		return types.Position{}, false, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load position", err)
	}

	return pos, true, nil
}

// GetOpenPositions returns all open positions, oldest first.
func (l *DuckDBLedger) GetOpenPositions() ([]types.Position, error) {
	query := l.sq.
		Select("ticker", "region", "quantity", "avg_entry_price", "sector", "opened_at").
		From("positions").
		OrderBy("opened_at ASC").
		RunWith(l.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query positions", err)
	}
	defer rows.Close()

	var positions []types.Position

	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan position", err)
		}

		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating positions", err)
	}

	return positions, nil
}

// GetDailyRealizedPnL sums realized P&L for the UTC calendar day of t.
func (l *DuckDBLedger) GetDailyRealizedPnL(t time.Time) (decimal.Decimal, error) {
	dayStart := time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := l.sq.
		Select("COALESCE(SUM(realized_pnl), 0)").
		From("closed_trades").
		Where(squirrel.GtOrEq{"closed_at": dayStart}).
		Where(squirrel.Lt{"closed_at": dayEnd}).
		RunWith(l.db)

	var total float64
	if err := query.QueryRow().Scan(&total); err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum daily realized pnl", err)
	}

	return decimal.NewFromFloat(total), nil
}

// GetSectorExposure returns entry notional per sector across open positions.
func (l *DuckDBLedger) GetSectorExposure() (map[string]decimal.Decimal, error) {
	query := l.sq.
		Select("sector", "SUM(quantity * avg_entry_price)").
		From("positions").
		GroupBy("sector").
		RunWith(l.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query sector exposure", err)
	}
	defer rows.Close()

	exposure := make(map[string]decimal.Decimal)

	for rows.Next() {
		var (
			sector   string
			notional float64
		)

		if err := rows.Scan(&sector, &notional); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan sector exposure", err)
		}

		exposure[sector] = decimal.NewFromFloat(notional)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating sector exposure", err)
	}

	return exposure, nil
}

// GetRecentClosedTrades returns up to limit round trips, most recent first.
func (l *DuckDBLedger) GetRecentClosedTrades(limit int) ([]types.ClosedTrade, error) {
	query := l.sq.
		Select("ticker", "region", "realized_pnl", "closed_at").
		From("closed_trades").
		OrderBy("closed_at DESC").
		Limit(uint64(limit)).
		RunWith(l.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query closed trades", err)
	}
	defer rows.Close()

	var trades []types.ClosedTrade

	for rows.Next() {
		var (
			trade  types.ClosedTrade
			region string
			pnl    float64
		)

		if err := rows.Scan(&trade.Ticker, &region, &pnl, &trade.ClosedAt); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan closed trade", err)
		}

		trade.Region = types.Region(region)
		trade.RealizedPnL = decimal.NewFromFloat(pnl)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating closed trades", err)
	}

	return trades, nil
}

// DB exposes the underlying handle so other stores (the circuit-breaker
// history) can share the single-writer DuckDB file.
func (l *DuckDBLedger) DB() *sql.DB {
	return l.db
}

// Close closes the database connection.
func (l *DuckDBLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}

	return l.db.Close()
}

func scanPosition(row interface{ Scan(...any) error }) (types.Position, error) {
	var (
		pos    types.Position
		region string
		avg    float64
	)

	if err := row.Scan(&pos.Ticker, &region, &pos.Quantity, &avg, &pos.Sector, &pos.OpenedAt); err != nil {
		return types.Position{}, err
	}

	pos.Region = types.Region(region)
	pos.AvgEntryPrice = decimal.NewFromFloat(avg)

	return pos, nil
}
