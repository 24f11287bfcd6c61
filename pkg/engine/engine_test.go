package engine_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koapa/koapa"
	"github.com/koapa/koapa/pkg/engine"
)

func openMemory(t *testing.T) *engine.DB {
	t.Helper()
	db, err := engine.Open(context.Background(), engine.Config{Driver: engine.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), engine.DefaultSQLiteFile)
	db, err := engine.Open(context.Background(), engine.Config{DSN: path})
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.Equal(t, engine.DriverSQLite, db.Driver())
	assert.Equal(t, koapa.DialectSQLite, db.Dialect())
	assert.FileExists(t, path)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := engine.Open(context.Background(), engine.Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver string
		want   koapa.Dialect
	}{
		{"", koapa.DialectSQLite},
		{engine.DriverSQLite, koapa.DialectSQLite},
		{engine.DriverPgx, koapa.DialectPostgres},
		{engine.DriverPostgres, koapa.DialectPostgres},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := engine.DialectFor(tt.driver)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBuilder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	qb := db.NewBuilder()

	_, err := qb.CreateTable("users",
		koapa.ColumnDef{Name: "userid", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true, NotNull: true},
		koapa.ColumnDef{Name: "username", Type: "TEXT", NotNull: true, Unique: true},
	).Execute(ctx)
	require.NoError(t, err)

	res, err := qb.Insert("users", map[string]any{"username": "test"}).Execute(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.LastInsertID)

	res, err = qb.Select("users", "*").Where(ctx, func(c koapa.Columns) *koapa.ExpressionChain {
		return c.Get("username").Equals("test")
	})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 1, res.Rows[0]["userid"])
}

func TestIsConstraintViolation_SQLite(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	qb := db.NewBuilder()

	_, err := qb.CreateTable("users",
		koapa.ColumnDef{Name: "username", Type: "TEXT", NotNull: true, Unique: true},
	).Execute(ctx)
	require.NoError(t, err)

	_, err = qb.Insert("users", map[string]any{"username": "a"}).Execute(ctx)
	require.NoError(t, err)

	_, err = qb.Insert("users", map[string]any{"username": "a"}).Execute(ctx)
	require.Error(t, err)
	assert.True(t, koapa.IsEngineFailureErr(err))
	assert.True(t, engine.IsConstraintViolation(err))
	assert.Equal(t, http.StatusConflict, koapa.StatusCode(err))

	code, ok := engine.SQLiteCode(err)
	assert.True(t, ok)
	assert.Equal(t, 19, code&0xff)

	_, err = qb.Select("missing", "*").Execute(ctx)
	require.Error(t, err)
	assert.False(t, engine.IsConstraintViolation(err))
}

func TestSQLState(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		state      string
		constraint bool
	}{
		{"pgx unique", &pgconn.PgError{Code: "23505"}, "23505", true},
		{"pgx syntax", &pgconn.PgError{Code: "42601"}, "42601", false},
		{"pq not null", &pq.Error{Code: "23502"}, "23502", true},
		{"wrapped pq", fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}), "23503", true},
		{"plain", errors.New("boom"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, engine.SQLState(tt.err))
			assert.Equal(t, tt.constraint, engine.IsConstraintViolation(tt.err))
		})
	}
}

// rejectingEngine fails every statement with err.
type rejectingEngine struct{ err error }

func (r rejectingEngine) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, r.err
}

func (r rejectingEngine) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, r.err
}

func TestConstraintCheck_MatchesBuilderDefault(t *testing.T) {
	errs := []error{
		&pgconn.PgError{Code: "23505"},
		&pgconn.PgError{Code: "42601"},
		&pq.Error{Code: "23502"},
		&pq.Error{Code: "40001"},
		fmt.Errorf("insert: %w", &pq.Error{Code: "23503"}),
		errors.New("boom"),
	}
	ctx := context.Background()
	for _, cause := range errs {
		t.Run(cause.Error(), func(t *testing.T) {
			want := http.StatusInternalServerError
			if engine.IsConstraintViolation(cause) {
				want = http.StatusConflict
			}

			typed := koapa.New(rejectingEngine{cause}, koapa.WithConstraintCheck(engine.IsConstraintViolation))
			_, err := typed.DropTable("users").Execute(ctx)
			require.Error(t, err)
			assert.Equal(t, want, koapa.StatusCode(err))

			plain := koapa.New(rejectingEngine{cause})
			_, err = plain.DropTable("users").Execute(ctx)
			require.Error(t, err)
			assert.Equal(t, want, koapa.StatusCode(err))
		})
	}
}
