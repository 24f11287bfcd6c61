package koapa_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/koapa/koapa"
)

// newTestDB opens a private in-memory SQLite database.
// A single connection keeps every statement on the same database.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// usersTable creates the users table the original demo endpoints use.
func usersTable(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := koapa.New(db).CreateTable("users",
		koapa.ColumnDef{Name: "userid", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true, NotNull: true},
		koapa.ColumnDef{Name: "username", Type: "TEXT", NotNull: true, Unique: true},
		koapa.ColumnDef{Name: "password", Type: "TEXT", NotNull: true},
		koapa.ColumnDef{Name: "email", Type: "TEXT", NotNull: true},
	).Execute(context.Background())
	require.NoError(t, err)
}

type call struct {
	method string
	query  string
	args   []any
}

// recordingEngine forwards to a real engine and records every call.
type recordingEngine struct {
	next  koapa.Engine
	calls []call
}

func (r *recordingEngine) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	r.calls = append(r.calls, call{method: "exec", query: query, args: args})
	return r.next.ExecContext(ctx, query, args...)
}

func (r *recordingEngine) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	r.calls = append(r.calls, call{method: "query", query: query, args: args})
	return r.next.QueryContext(ctx, query, args...)
}

// failingEngine rejects every statement with err.
type failingEngine struct {
	err   error
	calls int
}

func (f *failingEngine) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	f.calls++
	return nil, f.err
}

func (f *failingEngine) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	f.calls++
	return nil, f.err
}

// sqlStateError mimics the SQLState method of pgx and lib/pq errors.
type sqlStateError struct{ code string }

func (e sqlStateError) Error() string    { return "pg error " + e.code }
func (e sqlStateError) SQLState() string { return e.code }
