// Package risk evaluates open positions against stop-loss and take-profit
// thresholds and gates trading behind account-wide circuit breakers.
package risk

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/krx-lab/meridian-trading/internal/types"
	"github.com/krx-lab/meridian-trading/pkg/errors"
)

// BreakerStore persists circuit-breaker history. Rows are append-only:
// tripping inserts, recovery sets cleared_at, nothing is ever deleted.
type BreakerStore interface {
	// ActiveBreakers returns the uncleared records, at most one per type.
	ActiveBreakers() ([]types.CircuitBreakerRecord, error)

	// Trip records a CLEAR -> TRIPPED transition.
	Trip(breakerType types.BreakerType, reason string, at time.Time) (types.CircuitBreakerRecord, error)

	// Clear records a TRIPPED -> CLEAR transition attributed to an operator.
	// Fails when no active record exists for the type.
	Clear(breakerType types.BreakerType, operator string, at time.Time) error

	// History returns up to limit records, most recent trip first.
	History(limit int) ([]types.CircuitBreakerRecord, error)
}

// Compile-time interface check.
var _ BreakerStore = (*DuckDBBreakerStore)(nil)

// DuckDBBreakerStore keeps breaker history in a DuckDB table, typically
// sharing the position ledger's database file.
type DuckDBBreakerStore struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

// NewDuckDBBreakerStore creates the breaker history table if needed.
func NewDuckDBBreakerStore(db *sql.DB) (*DuckDBBreakerStore, error) {
	s := &DuckDBBreakerStore{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS circuit_breakers (
			id TEXT PRIMARY KEY,
			breaker_type TEXT,
			tripped_at TIMESTAMP,
			reason TEXT,
			cleared_at TIMESTAMP,
			cleared_by TEXT
		)
	`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, "failed to create breaker table", err)
	}

	return s, nil
}

// ActiveBreakers returns all uncleared records.
func (s *DuckDBBreakerStore) ActiveBreakers() ([]types.CircuitBreakerRecord, error) {
	query := s.sq.
		Select("id", "breaker_type", "tripped_at", "reason", "cleared_at", "cleared_by").
		From("circuit_breakers").
		Where("cleared_at IS NULL").
		OrderBy("tripped_at ASC").
		RunWith(s.db)

	return s.queryRecords(query)
}

// Trip appends a new active record for the breaker type.
func (s *DuckDBBreakerStore) Trip(breakerType types.BreakerType, reason string, at time.Time) (types.CircuitBreakerRecord, error) {
	record := types.CircuitBreakerRecord{
		ID:        uuid.New().String(),
		Type:      breakerType,
		TrippedAt: at,
		Reason:    reason,
	}

	insert := s.sq.
		Insert("circuit_breakers").
		Columns("id", "breaker_type", "tripped_at", "reason", "cleared_at", "cleared_by").
		Values(record.ID, string(record.Type), record.TrippedAt, record.Reason, nil, nil).
		RunWith(s.db)

	if _, err := insert.Exec(); err != nil {
		return types.CircuitBreakerRecord{}, errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to persist breaker trip", err)
	}

	return record, nil
}

// Clear resolves the active record for the breaker type.
func (s *DuckDBBreakerStore) Clear(breakerType types.BreakerType, operator string, at time.Time) error {
	update := s.sq.
		Update("circuit_breakers").
		Set("cleared_at", at).
		Set("cleared_by", operator).
		Where(squirrel.Eq{"breaker_type": string(breakerType)}).
		Where("cleared_at IS NULL").
		RunWith(s.db)

	result, err := update.Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to clear breaker", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to read clear result", err)
	}

	if affected == 0 {
		return errors.Newf(errors.ErrCodeBreakerNotTripped, "breaker %s has no active record", breakerType)
	}

	return nil
}

// History returns up to limit records, most recent trip first.
func (s *DuckDBBreakerStore) History(limit int) ([]types.CircuitBreakerRecord, error) {
	query := s.sq.
		Select("id", "breaker_type", "tripped_at", "reason", "cleared_at", "cleared_by").
		From("circuit_breakers").
		OrderBy("tripped_at DESC").
		Limit(uint64(limit)).
		RunWith(s.db)

	return s.queryRecords(query)
}

func (s *DuckDBBreakerStore) queryRecords(query squirrel.SelectBuilder) ([]types.CircuitBreakerRecord, error) {
	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query breaker records", err)
	}
	defer rows.Close()

	var records []types.CircuitBreakerRecord

	for rows.Next() {
		var (
			record    types.CircuitBreakerRecord
			kind      string
			clearedAt sql.NullTime
			clearedBy sql.NullString
		)

		if err := rows.Scan(&record.ID, &kind, &record.TrippedAt, &record.Reason, &clearedAt, &clearedBy); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan breaker record", err)
		}

		record.Type = types.BreakerType(kind)
		if clearedAt.Valid {
			record.ClearedAt = optional.Some(clearedAt.Time)
		}

		if clearedBy.Valid {
			record.ClearedBy = optional.Some(clearedBy.String)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating breaker records", err)
	}

	return records, nil
}
