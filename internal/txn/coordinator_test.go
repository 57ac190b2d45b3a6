package txn

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE kv (k TEXT PRIMARY KEY, v INTEGER)`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	return n
}

var errFakeConflict = errors.New("fake serialization conflict")

func conflictClassifier() ConflictClassifier {
	return ClassifierFunc(func(err error) bool { return errors.Is(err, errFakeConflict) })
}

func TestRunCommitsOnSuccess(t *testing.T) {
	db := tempDB(t)
	coord := NewCoordinator(db, conflictClassifier(), nil)

	err := coord.Run(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 1)`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db))
}

func TestRunRollsBackOnBusinessError(t *testing.T) {
	db := tempDB(t)
	coord := NewCoordinator(db, conflictClassifier(), nil)

	errBusiness := errors.New("insufficient funds")
	attempts := 0
	err := coord.Run(context.Background(), func(tx *sql.Tx) error {
		attempts++
		if _, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 1)`); err != nil {
			return err
		}
		return errBusiness
	})
	assert.ErrorIs(t, err, errBusiness)
	assert.Equal(t, 1, attempts, "business errors must not retry")
	assert.Equal(t, 0, countRows(t, db), "failed transaction must leave no rows")
}

func TestRunRetriesConflictsThenSucceeds(t *testing.T) {
	db := tempDB(t)
	coord := NewCoordinator(db, conflictClassifier(), nil)

	attempts := 0
	err := coord.Run(context.Background(), func(tx *sql.Tx) error {
		attempts++
		if _, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 1)`); err != nil {
			return err
		}
		if attempts < 3 {
			return errFakeConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, countRows(t, db), "only the final attempt may commit")
}

func TestRunGivesUpAfterRetryLimit(t *testing.T) {
	db := tempDB(t)
	coord := NewCoordinator(db, conflictClassifier(), nil)

	attempts := 0
	err := coord.Run(context.Background(), func(tx *sql.Tx) error {
		attempts++
		return errFakeConflict
	})
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, maxAttempts, attempts)
	assert.Equal(t, 0, countRows(t, db))
}

func TestRunRecoversFromPanicInBody(t *testing.T) {
	db := tempDB(t)
	coord := NewCoordinator(db, conflictClassifier(), nil)

	assert.Panics(t, func() {
		_ = coord.Run(context.Background(), func(tx *sql.Tx) error {
			_, _ = tx.Exec(`INSERT INTO kv (k, v) VALUES ('a', 1)`)
			panic("boom")
		})
	})
	assert.Equal(t, 0, countRows(t, db), "panicking body must roll back")

	// The transaction was settled by the rollback, so later operations
	// still run.
	err := coord.Run(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO kv (k, v) VALUES ('b', 2)`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countRows(t, db))
}
