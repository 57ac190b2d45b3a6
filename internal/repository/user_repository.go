package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/leoli101/flight-reservation/internal/model"
)

// UserRepo provides access to the `users` table. Identity reads (login)
// run outside any transaction; account creation and balance mutations run
// through the *Tx methods inside the caller's ambient transaction so that
// the read-then-decide-then-write sequences they belong to stay atomic.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// Get fetches a user by username. Returns sql.ErrNoRows when absent.
func (r *UserRepo) Get(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.db.QueryRowContext(ctx,
		"SELECT username, hash, salt, balance FROM users WHERE username = ?",
		username).Scan(&u.Username, &u.PasswordHash, &u.Salt, &u.Balance)
	return u, err
}

// GetTx is Get within an existing transaction, used when the balance read
// must be consistent with a subsequent update.
func (r *UserRepo) GetTx(ctx context.Context, tx *sql.Tx, username string) (model.User, error) {
	var u model.User
	err := tx.QueryRowContext(ctx,
		"SELECT username, hash, salt, balance FROM users WHERE username = ?",
		username).Scan(&u.Username, &u.PasswordHash, &u.Salt, &u.Balance)
	return u, err
}

// InsertTx creates the user row inside the given transaction. It checks for
// an existing username first and returns ErrUserExists either when the
// check finds a row or when the insert itself hits the unique key (two
// creations racing under weaker isolation).
func (r *UserRepo) InsertTx(ctx context.Context, tx *sql.Tx, u model.User) error {
	var existing string
	err := tx.QueryRowContext(ctx,
		"SELECT username FROM users WHERE username = ?", u.Username).Scan(&existing)
	if err == nil {
		return ErrUserExists
	}
	if err != sql.ErrNoRows {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO users (username, hash, salt, balance) VALUES (?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.Salt, u.Balance)
	if err != nil && isDuplicateKey(err) {
		return ErrUserExists
	}
	return err
}

// UpdateBalanceTx sets the user's balance to the given value inside the
// transaction. Callers compute the new value from a read made in the same
// transaction.
func (r *UserRepo) UpdateBalanceTx(ctx context.Context, tx *sql.Tx, username string, balance int) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE users SET balance = ? WHERE username = ?", balance, username)
	return err
}

// isDuplicateKey matches the MySQL duplicate-entry error (1062) and the
// sqlite UNIQUE constraint message used by the test databases.
func isDuplicateKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
