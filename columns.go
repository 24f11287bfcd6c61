package koapa

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultColumns are the columns offered to a where callback when the target
// table has no declared column set.
var DefaultColumns = []string{"userid", "username", "password"}

// ColumnSet maps a table name to the columns a where callback may reference.
// Table names are matched case-insensitively, as unquoted SQL identifiers
// are. The zero value is an empty set; use Declare to add tables.
type ColumnSet struct {
	tables   map[string][]string
	fallback []string
}

// NewColumnSet returns a set whose undeclared tables fall back to DefaultColumns.
func NewColumnSet() *ColumnSet {
	return &ColumnSet{
		tables:   make(map[string][]string),
		fallback: slices.Clone(DefaultColumns),
	}
}

// Declare sets the columns of table, replacing any previous declaration.
func (s *ColumnSet) Declare(table string, columns ...string) {
	if s.tables == nil {
		s.tables = make(map[string][]string)
	}
	s.tables[strings.ToLower(table)] = slices.Clone(columns)
}

// SetFallback sets the columns used for tables that were never declared.
func (s *ColumnSet) SetFallback(columns ...string) {
	s.fallback = slices.Clone(columns)
}

// Lookup returns the declared columns of table and whether it was declared.
func (s *ColumnSet) Lookup(table string) ([]string, bool) {
	cols, ok := s.tables[strings.ToLower(table)]
	return slices.Clone(cols), ok
}

// For returns the columns of table, or the fallback set.
func (s *ColumnSet) For(table string) []string {
	if cols, ok := s.tables[strings.ToLower(table)]; ok {
		return slices.Clone(cols)
	}
	return slices.Clone(s.fallback)
}

// Columns is the set of expression chains handed to a where callback,
// one fresh ACTIVE chain per declared column.
type Columns struct {
	table  string
	order  []string
	chains map[string]*ExpressionChain
}

// NewColumns builds a fresh chain for every column name.
func NewColumns(table string, names ...string) Columns {
	c := Columns{
		table:  table,
		order:  make([]string, 0, len(names)),
		chains: make(map[string]*ExpressionChain, len(names)),
	}
	for _, n := range names {
		if _, dup := c.chains[n]; dup {
			continue
		}
		c.order = append(c.order, n)
		c.chains[n] = NewExpressionChain(n)
	}
	return c
}

// Get returns the chain for column. An undeclared column yields a chain
// carrying ErrUnknownColumn, which the where call reports.
func (c Columns) Get(column string) *ExpressionChain {
	if ch, ok := c.chains[column]; ok {
		return ch
	}
	ch := NewExpressionChain(column)
	return ch.fail(newError(CodeUnknownColumn,
		fmt.Sprintf("column %q is not declared for table %q", column, c.table),
		map[string]any{"column": column, "table": c.table, "declared": slices.Clone(c.order)}))
}

// Has reports whether column is declared.
func (c Columns) Has(column string) bool {
	_, ok := c.chains[column]
	return ok
}

// Names returns the declared columns in declaration order.
func (c Columns) Names() []string {
	return slices.Clone(c.order)
}

// Table returns the table the columns belong to.
func (c Columns) Table() string { return c.table }
