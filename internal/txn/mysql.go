package txn

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers reported when the store kills a transaction to
// resolve contention: 1213 is a detected deadlock, 1205 a lock wait
// timeout. Both mean the operation can simply be retried.
const (
	mysqlDeadlock        = 1213
	mysqlLockWaitTimeout = 1205
)

// MySQLClassifier recognizes MySQL serialization conflicts.
type MySQLClassifier struct{}

// IsConflict implements ConflictClassifier for go-sql-driver/mysql errors.
func (MySQLClassifier) IsConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}

// SerializableOpts returns the transaction options used against the
// production store: every mutating operation runs serializable.
func SerializableOpts() *sql.TxOptions {
	return &sql.TxOptions{Isolation: sql.LevelSerializable}
}
