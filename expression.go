package koapa

import (
	"fmt"

	"github.com/koapa/koapa/internal/sqldsl"
)

// ChainState is the lifecycle state of an ExpressionChain.
type ChainState int

const (
	// ChainActive means the chain has no terminal comparison yet. It cannot be
	// folded into a query.
	ChainActive ChainState = iota

	// ChainCompleted means the chain ends in a comparison and renders valid SQL.
	ChainCompleted
)

// String returns the state name.
func (s ChainState) String() string {
	switch s {
	case ChainActive:
		return "ACTIVE"
	case ChainCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("ChainState(%d)", int(s))
	}
}

// ExpressionChain builds a boolean expression for a WHERE clause, one column
// at a time:
//
//	c.Get("username").Equals("test").And(c.Get("userid")).GreaterThan(3)
//
// renders "username = test AND userid > 3".
//
// Chains are immutable values. Every method returns a new chain and leaves the
// receiver unchanged, so the same column chain can be used more than once in
// an expression. The state only moves forward: a comparison turns an ACTIVE
// chain into a COMPLETED one, and And starts a new ACTIVE chain for the next
// column.
//
// Errors are sticky. A method that receives an invalid operand returns a chain
// carrying the error, and every later method returns that chain unchanged.
// Where reports the error; Err exposes it directly.
type ExpressionChain struct {
	column  string
	prior   string
	current string
	state   ChainState

	// Parameterized twin of prior/current: the same text with literal
	// values replaced by placeholders, plus the bound values in order.
	boundPrior   string
	priorArgs    []any
	boundCurrent string
	currentArgs  []any

	err error
}

// NewExpressionChain returns an ACTIVE chain for column.
func NewExpressionChain(column string) *ExpressionChain {
	return &ExpressionChain{
		column:       column,
		current:      column,
		boundCurrent: column,
		state:        ChainActive,
	}
}

// fail returns a copy of the chain carrying err. Its expression text is kept for
// diagnostics.
func (c *ExpressionChain) fail(err error) *ExpressionChain {
	next := *c
	next.err = err
	return &next
}

// Column returns the column this chain compares.
func (c *ExpressionChain) Column() string { return c.column }

// PriorExpression returns the accumulated text. On an ACTIVE chain that is the
// text joined before this column; a comparison appends its expression to it.
func (c *ExpressionChain) PriorExpression() string { return c.prior }

// CurrentExpression returns the text of the expression so far.
func (c *ExpressionChain) CurrentExpression() string { return c.current }

// State returns the chain's lifecycle state.
func (c *ExpressionChain) State() ChainState { return c.state }

// Err returns the first error recorded along the chain.
func (c *ExpressionChain) Err() error { return c.err }

// EvalToString returns the current expression verbatim. It does not validate
// the chain; check State first.
func (c *ExpressionChain) EvalToString() string { return c.current }

// Bound returns the expression with literal values replaced by placeholders,
// and the values to bind in order.
func (c *ExpressionChain) Bound() (string, []any) {
	return c.boundCurrent, append([]any(nil), c.currentArgs...)
}

// Equals completes the chain with "column = value".
func (c *ExpressionChain) Equals(value any) *ExpressionChain {
	return c.compare("equals", sqldsl.OpEq, value)
}

// DoesNotEquals completes the chain with "column != value".
func (c *ExpressionChain) DoesNotEquals(value any) *ExpressionChain {
	return c.compare("doesNotEquals", sqldsl.OpNe, value)
}

// GreaterThan completes the chain with "column > value".
func (c *ExpressionChain) GreaterThan(value any) *ExpressionChain {
	return c.compare("greaterThan", sqldsl.OpGt, value)
}

// LessThan completes the chain with "column < value".
func (c *ExpressionChain) LessThan(value any) *ExpressionChain {
	return c.compare("lessThan", sqldsl.OpLt, value)
}

// compare applies op to the chain. A value that is itself a chain compares
// column to column and passes on any error it carries; anything else is a
// literal. The completed expression is appended onto the prior text.
func (c *ExpressionChain) compare(method, op string, value any) *ExpressionChain {
	if c.err != nil {
		return c
	}
	if isAbsent(value) {
		return c.fail(newError(CodeInvalidOperand,
			fmt.Sprintf("cannot use nil as a %q check parameter", method),
			map[string]any{"column": c.column, "method": method}))
	}
	if c.state == ChainCompleted {
		return c.fail(newError(CodeChainAlreadyCompleted,
			fmt.Sprintf("cannot apply %q to a completed expression chain", method),
			map[string]any{"column": c.column, "method": method, "expression": c.current}))
	}

	var right sqldsl.Expr
	if other, ok := value.(*ExpressionChain); ok {
		if other.err != nil {
			return c.fail(other.err)
		}
		right = sqldsl.Ident(other.column)
	} else {
		right = sqldsl.Value{V: value}
	}
	cmp := sqldsl.Cmp{Left: sqldsl.Raw(c.current), Op: op, Right: right}
	boundCmp, args := sqldsl.Cmp{Left: sqldsl.Raw(c.boundCurrent), Op: op, Right: right}.Bind(nil)

	next := *c
	next.current = c.prior + cmp.SQL()
	next.boundCurrent = c.boundPrior + boundCmp
	next.currentArgs = append(append([]any(nil), c.priorArgs...), c.currentArgs...)
	next.currentArgs = append(next.currentArgs, args...)
	next.prior = c.prior + next.current
	next.boundPrior = c.boundPrior + next.boundCurrent
	next.priorArgs = append(append([]any(nil), c.priorArgs...), next.currentArgs...)
	next.state = ChainCompleted
	return &next
}

// And joins other onto this completed chain. It returns a new ACTIVE chain for
// other's column; a comparison on that chain completes the conjunction.
func (c *ExpressionChain) And(other *ExpressionChain) *ExpressionChain {
	if c.err != nil {
		return c
	}
	if other == nil {
		return c.fail(newError(CodeInvalidOperand,
			"cannot use nil as an \"and\" check parameter",
			map[string]any{"column": c.column, "method": "and"}))
	}
	if other.err != nil {
		return other
	}
	if c.state != ChainCompleted {
		return c.fail(incompleteChainError(c))
	}
	if other.state != ChainActive {
		return c.fail(newError(CodeChainAlreadyCompleted,
			"the operand of \"and\" must not have a comparison applied",
			map[string]any{"column": other.column, "method": "and", "expression": other.current}))
	}

	next := NewExpressionChain(other.column)
	next.prior = c.current + " AND "
	next.boundPrior = c.boundCurrent + " AND "
	next.priorArgs = append([]any(nil), c.currentArgs...)
	return next
}

// incompleteChainError reports a chain that never reached a comparison.
func incompleteChainError(c *ExpressionChain) *Error {
	return newError(CodeExpressionChainIncomplete,
		"the where clause chain was not completed, see details",
		map[string]any{
			"column":                    c.column,
			"expression":                c.current,
			"expressionBeforeAndClause": c.prior,
		})
}

// isAbsent reports whether v is nil or a typed nil chain.
func isAbsent(v any) bool {
	if v == nil {
		return true
	}
	if ch, ok := v.(*ExpressionChain); ok && ch == nil {
		return true
	}
	return false
}
