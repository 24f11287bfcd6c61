package sqldsl

// Comparison operators understood by the expression chain.
const (
	OpEq = "="
	OpNe = "!="
	OpGt = ">"
	OpLt = "<"
)

// Cmp represents a binary comparison.
type Cmp struct {
	Left  Expr
	Op    string
	Right Expr
}

func (c Cmp) SQL() string { return c.Left.SQL() + " " + c.Op + " " + c.Right.SQL() }

func (c Cmp) Bind(args []any) (string, []any) {
	l, args := c.Left.Bind(args)
	r, args := c.Right.Bind(args)
	return l + " " + c.Op + " " + r, args
}

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// AndExpr joins expressions with AND. Unlike a generic DSL it adds no
// parentheses: the builder's WHERE text is a flat conjunction.
type AndExpr struct {
	Exprs []Expr
}

func (a AndExpr) SQL() string { return joinSQL(a.Exprs, " AND ") }

func (a AndExpr) Bind(args []any) (string, []any) { return joinBind(a.Exprs, " AND ", args) }

// And creates an AND expression from multiple expressions.
func And(exprs ...Expr) AndExpr {
	return AndExpr{Exprs: filterNilExprs(exprs)}
}

// Assignments renders fields as "a = 'x'" comparisons.
func Assignments(fields []Field) []Expr {
	out := make([]Expr, len(fields))
	for i, f := range fields {
		out[i] = f.Assign()
	}
	return out
}
