package engine

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE class for integrity constraint violations.
const pgIntegrityClass = "23"

// SQLState returns the PostgreSQL SQLSTATE code carried by err, or "".
// Both pgx and lib/pq errors are recognised, including when wrapped in a
// koapa engine failure.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// SQLiteCode returns the extended SQLite result code carried by err.
func SQLiteCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

// IsConstraintViolation reports whether err is a unique, not-null, foreign-key
// or check violation from any supported driver. Builders created by
// (*DB).NewBuilder use it to answer such failures with 409.
func IsConstraintViolation(err error) bool {
	if state := SQLState(err); state != "" {
		return len(state) == 5 && state[:2] == pgIntegrityClass
	}
	if code, ok := SQLiteCode(err); ok {
		return code&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
