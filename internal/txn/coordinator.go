// Package txn wraps multi-statement sequences in atomic transactions and
// recovers from store-detected serialization conflicts by retrying the whole
// operation body from the top. Business failures and unexpected store errors
// roll back and propagate; only conflicts are retried, up to a fixed cap.
package txn

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ConflictClassifier recognizes the store-specific error signalling that
// concurrent transactions could not both commit under serializable
// isolation. Implementations exist per backing store.
type ConflictClassifier interface {
	IsConflict(err error) bool
}

// ClassifierFunc adapts a plain function to the ConflictClassifier
// interface.
type ClassifierFunc func(err error) bool

// IsConflict implements ConflictClassifier.
func (f ClassifierFunc) IsConflict(err error) bool { return f(err) }

// maxAttempts bounds conflict retries for every operation uniformly; a
// sustained conflict storm surfaces as ErrRetryExhausted instead of looping
// forever.
const maxAttempts = 10

// ErrRetryExhausted is returned after maxAttempts consecutive serialization
// conflicts.
var ErrRetryExhausted = errors.New("transaction retry limit exhausted")

// ErrDanglingTransaction is the consistency fault raised when an operation
// finishes with its transaction neither committed nor rolled back. It marks
// a coordinator bug, is never retried, and poisons the coordinator so no
// further transactions run on this logical connection.
var ErrDanglingTransaction = errors.New("transaction left open after operation")

// Coordinator serializes transaction execution for one logical connection:
// at most one transaction is in flight at a time, every body runs between
// begin and commit with rollback on any failure path, and conflicts retry
// the body from the top.
type Coordinator struct {
	db         *sql.DB
	classifier ConflictClassifier
	opts       *sql.TxOptions

	mu     sync.Mutex
	broken bool
}

// NewCoordinator builds a Coordinator. opts selects the isolation level
// (serializable in production; nil keeps the store default, which the test
// databases rely on).
func NewCoordinator(db *sql.DB, classifier ConflictClassifier, opts *sql.TxOptions) *Coordinator {
	return &Coordinator{db: db, classifier: classifier, opts: opts}
}

// Run executes body inside a transaction. On a serialization conflict the
// transaction is rolled back and the body restarted, up to maxAttempts. Any
// other error from the body rolls back and is returned as-is. A nil return
// from the body commits; a conflicting commit also counts as a retry.
func (c *Coordinator) Run(ctx context.Context, body func(tx *sql.Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return ErrDanglingTransaction
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := c.runOnce(ctx, body)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDanglingTransaction) {
			c.broken = true
			return err
		}
		if c.classifier != nil && c.classifier.IsConflict(err) {
			log.Printf("txn: serialization conflict, retrying (attempt %d/%d)", attempt, maxAttempts)
			continue
		}
		return err
	}
	return ErrRetryExhausted
}

// runOnce performs one begin/body/commit cycle and guarantees the
// transaction is settled before returning, whatever the body does.
func (c *Coordinator) runOnce(ctx context.Context, body func(tx *sql.Tx) error) (err error) {
	tx, err := c.db.BeginTx(ctx, c.opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	settled := false
	defer func() {
		if settled {
			return
		}
		// Reached on a panic in the body or a missed settle path. Roll
		// back so no transaction is ever left open on the connection.
		rbErr := tx.Rollback()
		if r := recover(); r != nil {
			panic(r)
		}
		if rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(ErrDanglingTransaction, rbErr)
			return
		}
		if err == nil {
			err = ErrDanglingTransaction
		}
	}()

	if err := body(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			settled = true
			return errors.Join(ErrDanglingTransaction, rbErr)
		}
		settled = true
		return err
	}
	if err := tx.Commit(); err != nil {
		settled = true
		return err
	}
	settled = true
	return nil
}
