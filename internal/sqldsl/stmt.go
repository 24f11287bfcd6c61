package sqldsl

import (
	"strconv"
	"strings"
)

// ColumnDef describes one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name          string
	Type          string
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool
	Default       string // raw SQL, omitted when empty
}

// SQL renders the column definition. Clause order is fixed:
// type, primary key, autoincrement, not null, unique, default.
func (c ColumnDef) SQL() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteString(" ")
	sb.WriteString(c.Type)
	if c.PrimaryKey {
		sb.WriteString(" PRIMARY KEY")
	}
	if c.AutoIncrement {
		sb.WriteString(" AUTOINCREMENT")
	}
	if c.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if c.Unique {
		sb.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(c.Default)
	}
	return sb.String()
}

// Bind renders the column definition; DDL never binds values.
func (c ColumnDef) Bind(args []any) (string, []any) { return c.SQL(), args }

// CreateTable represents CREATE TABLE.
type CreateTable struct {
	Table   string
	Columns []ColumnDef
}

func (s CreateTable) SQL() string {
	defs := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		defs[i] = c.SQL()
	}
	return "CREATE TABLE " + s.Table + " (" + strings.Join(defs, ", ") + ")"
}

func (s CreateTable) Bind(args []any) (string, []any) { return s.SQL(), args }

// Insert represents INSERT INTO ... VALUES. Fields render in slice order.
type Insert struct {
	Table  string
	Fields []Field
}

func (s Insert) parts() (List, List) {
	names := make(List, len(s.Fields))
	values := make(List, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = Ident(f.Name)
		values[i] = Lit{V: f.Value}
	}
	return names, values
}

func (s Insert) SQL() string {
	names, values := s.parts()
	return "INSERT INTO " + s.Table + " " + Paren{names}.SQL() + " VALUES " + Paren{values}.SQL()
}

func (s Insert) Bind(args []any) (string, []any) {
	names, values := s.parts()
	v, args := Paren{values}.Bind(args)
	return "INSERT INTO " + s.Table + " " + Paren{names}.SQL() + " VALUES " + v, args
}

// Select represents SELECT ... FROM. No columns selects "*".
type Select struct {
	Table   string
	Columns []string
}

func (s Select) SQL() string {
	cols := s.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	return "SELECT " + Idents(cols...).SQL() + " FROM " + s.Table
}

func (s Select) Bind(args []any) (string, []any) { return s.SQL(), args }

// Update represents UPDATE ... SET.
type Update struct {
	Table string
	Set   []Field
}

func (s Update) SQL() string {
	return "UPDATE " + s.Table + " SET " + List(Assignments(s.Set)).SQL()
}

func (s Update) Bind(args []any) (string, []any) {
	set, args := List(Assignments(s.Set)).Bind(args)
	return "UPDATE " + s.Table + " SET " + set, args
}

// Delete represents DELETE FROM. Where fields are joined with AND.
type Delete struct {
	Table string
	Where []Field
}

// HasWhere reports whether the statement already renders a WHERE clause.
func (s Delete) HasWhere() bool { return len(s.Where) > 0 }

func (s Delete) SQL() string {
	if !s.HasWhere() {
		return "DELETE FROM " + s.Table
	}
	return "DELETE FROM " + s.Table + " WHERE " + And(Assignments(s.Where)...).SQL()
}

func (s Delete) Bind(args []any) (string, []any) {
	if !s.HasWhere() {
		return s.SQL(), args
	}
	cond, args := And(Assignments(s.Where)...).Bind(args)
	return "DELETE FROM " + s.Table + " WHERE " + cond, args
}

// DropTable represents DROP TABLE.
type DropTable struct {
	Table string
}

func (s DropTable) SQL() string { return "DROP TABLE " + s.Table }

func (s DropTable) Bind(args []any) (string, []any) { return s.SQL(), args }

// DropDatabase represents DROP DATABASE, passed through verbatim.
type DropDatabase struct{}

func (DropDatabase) SQL() string { return "DROP DATABASE" }

func (s DropDatabase) Bind(args []any) (string, []any) { return s.SQL(), args }

// WhereClause is the fragment appended to a statement by a where call.
// Extend joins onto a WHERE the statement already rendered.
type WhereClause struct {
	Cond   Expr
	Extend bool
}

func (w WhereClause) keyword() string {
	if w.Extend {
		return " AND "
	}
	return " WHERE "
}

func (w WhereClause) SQL() string { return w.keyword() + w.Cond.SQL() }

func (w WhereClause) Bind(args []any) (string, []any) {
	cond, args := w.Cond.Bind(args)
	return w.keyword() + cond, args
}

// Rebind rewrites "?" placeholders as "$1", "$2", ... for engines that
// number their parameters. Text inside single quotes is left alone.
func Rebind(query string) string {
	if !strings.Contains(query, Placeholder) {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	quoted := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			quoted = !quoted
			sb.WriteByte(ch)
		case ch == '?' && !quoted:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}
