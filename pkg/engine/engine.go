// Package engine opens the relational engines a koapa.QueryBuilder runs
// against.
//
// Three database/sql drivers are registered:
//
//   - "sqlite" (modernc.org/sqlite), the default. Embedded, no cgo.
//   - "pgx" (github.com/jackc/pgx/v5/stdlib).
//   - "postgres" (github.com/lib/pq).
//
// Open returns a *DB that pairs the *sql.DB with the placeholder dialect its
// driver expects, so builders created from it bind parameters correctly:
//
//	db, err := engine.Open(ctx, engine.Config{Driver: "sqlite", DSN: "koapa-core.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	qb := db.NewBuilder()
package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/koapa/koapa"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// DefaultSQLiteFile is the database file used when a SQLite DSN is empty.
const DefaultSQLiteFile = "koapa-core.db"

// Config selects a driver and data source.
type Config struct {
	// Driver is one of DriverSQLite, DriverPgx or DriverPostgres.
	// Empty means DriverSQLite.
	Driver string

	// DSN is passed to sql.Open unchanged. For SQLite it is a file path or
	// ":memory:"; for the Postgres drivers a URL or keyword/value string.
	DSN string

	// MaxOpenConns limits the pool. Zero keeps the database/sql default,
	// except for SQLite which is always limited to one connection.
	MaxOpenConns int
}

// DB is an open engine handle. It satisfies koapa.Engine.
type DB struct {
	*sql.DB
	driver  string
	dialect koapa.Dialect
}

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverSQLite
	}

	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if driver == DriverSQLite && dsn == "" {
		dsn = DefaultSQLiteFile
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	switch {
	case driver == DriverSQLite:
		// SQLite allows one writer; a single connection also keeps
		// ":memory:" databases from splitting across connections.
		sqlDB.SetMaxOpenConns(1)
	case cfg.MaxOpenConns > 0:
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", driver, err)
	}

	return &DB{DB: sqlDB, driver: driver, dialect: dialect}, nil
}

// DialectFor returns the placeholder dialect of a driver.
func DialectFor(driver string) (koapa.Dialect, error) {
	switch driver {
	case DriverSQLite, "":
		return koapa.DialectSQLite, nil
	case DriverPgx, DriverPostgres:
		return koapa.DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver %q (want %s, %s or %s)",
			driver, DriverSQLite, DriverPgx, DriverPostgres)
	}
}

// Driver returns the driver name the handle was opened with.
func (db *DB) Driver() string { return db.driver }

// Dialect returns the placeholder dialect of the handle.
func (db *DB) Dialect() koapa.Dialect { return db.dialect }

// NewBuilder returns a QueryBuilder bound to this handle and its dialect.
// Engine errors are classified with IsConstraintViolation. Options are
// applied after these, so WithDialect and WithConstraintCheck can override
// them.
func (db *DB) NewBuilder(opts ...koapa.Option) *koapa.QueryBuilder {
	base := []koapa.Option{
		koapa.WithDialect(db.dialect),
		koapa.WithConstraintCheck(IsConstraintViolation),
	}
	return koapa.New(db.DB, append(base, opts...)...)
}
