package koapa

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/koapa/koapa/internal/sqldsl"
)

// Querier runs statements that return rows.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Engine is the relational engine a QueryBuilder sends its statements to.
// Implemented by *sql.DB, *sql.Tx, and *sql.Conn, so a builder can run inside
// a transaction:
//
//	tx, _ := db.BeginTx(ctx, nil)
//	qb := koapa.New(tx)
//	qb.Insert("users", map[string]any{"username": "test"})
//	_, err := qb.Execute(ctx)
//	tx.Commit()
//
// The handle is owned by the caller and may be shared between builders.
type Engine interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect selects the placeholder syntax used when statements reach the engine.
type Dialect string

const (
	// DialectSQLite uses "?" placeholders. It is the default.
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres uses "$1", "$2", ... placeholders.
	DialectPostgres Dialect = "postgres"
)

// ParseDialect returns the dialect named s.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectSQLite, "":
		return DialectSQLite, nil
	case DialectPostgres:
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unknown dialect %q", s)
	}
}

// Rebind rewrites the "?" placeholders of query for the dialect.
func (d Dialect) Rebind(query string) string {
	if d == DialectPostgres {
		return sqldsl.Rebind(query)
	}
	return query
}

// Result is the outcome of a finished statement.
type Result struct {
	// Query is the literal text of the statement that ran.
	Query string `json:"query"`

	// Columns and Rows are set for SELECT statements.
	Columns []string         `json:"columns,omitempty"`
	Rows    []map[string]any `json:"rows,omitempty"`

	// RowsAffected and LastInsertID are set for other statements when the
	// driver reports them.
	RowsAffected int64 `json:"rowsAffected"`
	LastInsertID int64 `json:"lastInsertId,omitempty"`

	// DryRun is true when the statement was written out instead of run.
	DryRun bool `json:"dryRun,omitempty"`
}

// scanRows reads every row into a column-keyed map. Byte slices become
// strings so results marshal as text.
func scanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	out := []map[string]any{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}
