package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/results"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Store keeps scenario results in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

var _ results.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS test_runs (
    id          TEXT PRIMARY KEY,
    started_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS scenario_results (
    run_id      TEXT NOT NULL REFERENCES test_runs (id),
    scenario_id TEXT NOT NULL,
    scenario    TEXT NOT NULL,
    feature     TEXT NOT NULL,
    browser     TEXT NOT NULL,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    screenshot  TEXT NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
);`

var recordColumns = []string{"run_id", "scenario_id", "scenario", "feature", "browser", "status", "error", "screenshot", "started_at", "duration_ms"}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the result tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// PersistRecords writes a batch of records in one transaction. Every run referenced
// by the batch is upserted first.
func (s *Store) PersistRecords(ctx context.Context, records []results.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if err := s.upsertRuns(ctx, tx, records); err != nil {
		return err
	}
	if err := s.copyRecords(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Persisted scenario results", zap.Int("count", len(records)))
	return nil
}

func (s *Store) upsertRuns(ctx context.Context, tx pgx.Tx, records []results.Record) error {
	sql := `
        INSERT INTO test_runs (id, started_at, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            updated_at = EXCLUDED.updated_at;
    `
	now := time.Now()
	seen := make(map[string]bool)

	for _, r := range records {
		if seen[r.RunID] {
			continue
		}
		seen[r.RunID] = true
		if _, err := tx.Exec(ctx, sql, r.RunID, r.StartedAt, now); err != nil {
			return fmt.Errorf("failed to upsert run %s: %w", r.RunID, err)
		}
	}
	return nil
}

func (s *Store) copyRecords(ctx context.Context, tx pgx.Tx, records []results.Record) error {
	rows := make([][]interface{}, len(records))
	for i, r := range records {
		rows[i] = []interface{}{
			r.RunID, r.ScenarioID, r.Scenario, r.Feature, r.Browser,
			string(r.Status), r.Error, r.Screenshot,
			r.StartedAt, r.Duration.Milliseconds(),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"scenario_results"}, recordColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy scenario results: %w", err)
	}
	if int(copyCount) != len(records) {
		return fmt.Errorf("mismatch in copied results count: expected %d, got %d", len(records), copyCount)
	}
	return nil
}

// GetRecordsByRunID returns the results of one run in execution order.
func (s *Store) GetRecordsByRunID(ctx context.Context, runID string) ([]results.Record, error) {
	query := `
        SELECT scenario_id, scenario, feature, browser, status, error, screenshot, started_at, duration_ms
        FROM scenario_results
        WHERE run_id = $1
        ORDER BY started_at ASC;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenario results: %w", err)
	}
	defer rows.Close()

	var records []results.Record
	for rows.Next() {
		var (
			r          results.Record
			status     string
			durationMS int64
		)
		err := rows.Scan(
			&r.ScenarioID, &r.Scenario, &r.Feature, &r.Browser,
			&status, &r.Error, &r.Screenshot,
			&r.StartedAt, &durationMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}

		r.RunID = runID
		r.Status = results.ParseStatus(status)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	return records, nil
}
