package sqldsl

import (
	"fmt"
	"strings"
)

// Placeholder is the parameter marker used in bound text.
const Placeholder = "?"

// Expr is the interface that all SQL expression and statement types implement.
type Expr interface {
	// SQL renders the literal text.
	SQL() string
	// Bind renders the parameterized text, appending bound values to args.
	Bind(args []any) (string, []any)
}

// Ident represents a table or column name.
type Ident string

// SQL renders the identifier as-is.
func (i Ident) SQL() string { return string(i) }

// Bind renders the identifier as-is.
func (i Ident) Bind(args []any) (string, []any) { return string(i), args }

// Raw is an escape hatch for trusted SQL text such as column types and defaults.
type Raw string

// SQL renders the raw text.
func (r Raw) SQL() string { return string(r) }

// Bind renders the raw text without binding anything.
func (r Raw) Bind(args []any) (string, []any) { return string(r), args }

// Value is an unquoted value, printed with fmt.Sprint.
// Comparison operands in a WHERE expression render this way.
type Value struct {
	V any
}

// SQL renders the value without quotes.
func (v Value) SQL() string { return fmt.Sprint(v.V) }

// Bind renders a placeholder and binds the value.
func (v Value) Bind(args []any) (string, []any) { return Placeholder, append(args, v.V) }

// Lit is a value wrapped in single quotes.
// The literal text is not escaped; only the bound form is safe for untrusted input.
type Lit struct {
	V any
}

// SQL renders the value inside single quotes.
func (l Lit) SQL() string { return "'" + fmt.Sprint(l.V) + "'" }

// Bind renders a placeholder and binds the value.
func (l Lit) Bind(args []any) (string, []any) { return Placeholder, append(args, l.V) }

// Field pairs a column name with a value.
type Field struct {
	Name  string
	Value any
}

// Assign renders the field as "name = 'value'".
func (f Field) Assign() Cmp {
	return Cmp{Left: Ident(f.Name), Op: OpEq, Right: Lit{V: f.Value}}
}

// joinSQL renders the literal text of parts joined by sep.
func joinSQL(parts []Expr, sep string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.SQL()
	}
	return strings.Join(out, sep)
}

// joinBind renders the bound text of parts joined by sep.
func joinBind(parts []Expr, sep string, args []any) (string, []any) {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i], args = p.Bind(args)
	}
	return strings.Join(out, sep), args
}

// List renders expressions separated by ", ".
type List []Expr

// SQL renders the list.
func (l List) SQL() string { return joinSQL(l, ", ") }

// Bind renders the bound list.
func (l List) Bind(args []any) (string, []any) { return joinBind(l, ", ", args) }

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string { return "(" + p.Expr.SQL() + ")" }

// Bind renders the parenthesized bound expression.
func (p Paren) Bind(args []any) (string, []any) {
	s, args := p.Expr.Bind(args)
	return "(" + s + ")", args
}

// Idents converts names to a list of identifiers.
func Idents(names ...string) List {
	out := make(List, len(names))
	for i, n := range names {
		out[i] = Ident(n)
	}
	return out
}
