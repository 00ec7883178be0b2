package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/results"
)

// -- Helpers --

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)

	mockPool.ExpectPing().WillReturnError(nil)
	store, err := New(context.Background(), mockPool, zap.NewNop())
	require.NoError(t, err)
	return mockPool, store
}

func flexibleSQL(sql string) string {
	return regexp.MustCompile(`\s+`).ReplaceAllString(regexp.QuoteMeta(strings.TrimSpace(sql)), `\s+`)
}

const upsertRunSQL = `
        INSERT INTO test_runs (id, started_at, updated_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (id) DO UPDATE SET
            updated_at = EXCLUDED.updated_at;
    `

// -- Test Cases --

func TestNewStore(t *testing.T) {
	t.Run("should return error if ping fails", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool(pgxmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer mockPool.Close()

		pingErr := errors.New("database unavailable")
		mockPool.ExpectPing().WillReturnError(pingErr)

		_, err = New(context.Background(), mockPool, zap.NewNop())
		require.Error(t, err)
		assert.ErrorIs(t, err, pingErr, "Error from ping should be propagated")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestEnsureSchema(t *testing.T) {
	mockPool, store := newMockStore(t)

	mockPool.ExpectExec(`CREATE TABLE IF NOT EXISTS test_runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPersistRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist a batch successfully", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		runID := uuid.NewString()
		started := time.Now()
		records := []results.Record{
			{RunID: runID, ScenarioID: "s-1", Scenario: "Successful login", Status: results.StatusPassed, StartedAt: started},
			{RunID: runID, ScenarioID: "s-2", Scenario: "Invalid credentials", Status: results.StatusFailed, Error: "boom", StartedAt: started},
		}

		mockPool.ExpectBegin()
		// One upsert per distinct run.
		mockPool.ExpectExec(flexibleSQL(upsertRunSQL)).
			WithArgs(runID, started, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"scenario_results"}, recordColumns).WillReturnResult(2)
		mockPool.ExpectCommit()

		require.NoError(t, store.PersistRecords(ctx, records))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should skip an empty batch", func(t *testing.T) {
		mockPool, store := newMockStore(t)
		require.NoError(t, store.PersistRecords(ctx, nil))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should handle transaction begin failure", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		beginErr := errors.New("cannot begin tx")
		mockPool.ExpectBegin().WillReturnError(beginErr)

		err := store.PersistRecords(ctx, []results.Record{{RunID: "r"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, beginErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should rollback if copying results fails", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		copyErr := errors.New("copy from failed")
		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQL(upsertRunSQL)).
			WithArgs("r", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"scenario_results"}, recordColumns).
			WillReturnError(copyErr)
		mockPool.ExpectRollback()

		err := store.PersistRecords(ctx, []results.Record{{RunID: "r", Status: results.StatusPassed}})
		require.Error(t, err)
		assert.ErrorIs(t, err, copyErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should report a short copy", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		mockPool.ExpectBegin()
		mockPool.ExpectExec(flexibleSQL(upsertRunSQL)).
			WithArgs("r", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCopyFrom(pgx.Identifier{"scenario_results"}, recordColumns).WillReturnResult(0)
		mockPool.ExpectRollback()

		err := store.PersistRecords(ctx, []results.Record{{RunID: "r"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mismatch")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestGetRecordsByRunID(t *testing.T) {
	ctx := context.Background()

	t.Run("should retrieve records successfully", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		sqlGetRecords := `
        SELECT scenario_id, scenario, feature, browser, status, error, screenshot, started_at, duration_ms
        FROM scenario_results
        WHERE run_id = $1
        ORDER BY started_at ASC;
		`
		runID := uuid.NewString()
		now := time.Now()

		columns := []string{"scenario_id", "scenario", "feature", "browser", "status", "error", "screenshot", "started_at", "duration_ms"}
		rows := pgxmock.NewRows(columns).
			AddRow("s-1", "Successful login", "features/login.feature", "chrome", "passed", "", "", now, int64(1500)).
			AddRow("s-2", "Invalid credentials", "features/login.feature", "chrome", "FAILED", "boom", "target/screenshots/s-2.png", now, int64(250))

		mockPool.ExpectQuery(flexibleSQL(sqlGetRecords)).
			WithArgs(runID).
			WillReturnRows(rows)

		records, err := store.GetRecordsByRunID(ctx, runID)
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, runID, records[0].RunID)
		assert.Equal(t, results.StatusPassed, records[0].Status)
		assert.Equal(t, 1500*time.Millisecond, records[0].Duration)
		assert.Equal(t, results.StatusFailed, records[1].Status)
		assert.Equal(t, "target/screenshots/s-2.png", records[1].Screenshot)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("should propagate query errors", func(t *testing.T) {
		mockPool, store := newMockStore(t)

		queryErr := errors.New("relation does not exist")
		mockPool.ExpectQuery(`SELECT scenario_id`).WithArgs("r").WillReturnError(queryErr)

		_, err := store.GetRecordsByRunID(ctx, "r")
		assert.ErrorIs(t, err, queryErr)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
