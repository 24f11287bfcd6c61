package koapa

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/koapa/koapa/internal/sqldsl"
)

// Type aliases for statement inputs.
type (
	// ColumnDef describes one column of CreateTable.
	ColumnDef = sqldsl.ColumnDef
	// Field pairs a column name with a value for InsertFields, Update and Delete.
	Field = sqldsl.Field
)

// Builder method names recorded on the call stack.
const (
	MethodCreateTable  = "createTable"
	MethodInsert       = "insert"
	MethodSelect       = "select"
	MethodUpdate       = "update"
	MethodDelete       = "delete"
	MethodDropTable    = "dropTable"
	MethodDropDatabase = "dropDatabase"
	MethodWhere        = "where"
)

// chainable lists which statement methods accept a where clause.
var chainable = map[string]bool{
	MethodSelect:       true,
	MethodUpdate:       true,
	MethodDelete:       true,
	MethodInsert:       false,
	MethodCreateTable:  false,
	MethodDropTable:    false,
	MethodDropDatabase: false,
}

// IsChainable reports whether a where clause may follow the builder method.
func IsChainable(method string) bool {
	return chainable[method]
}

// stateHasWhere is set when the last statement already rendered a WHERE.
const stateHasWhere = "hasWhere"

// Phase is the builder's position in the statement lifecycle.
type Phase int

const (
	// PhaseEmpty means no statement is in flight.
	PhaseEmpty Phase = iota
	// PhaseChainable means the last statement accepts a where clause.
	PhaseChainable
	// PhaseNonChainable means the last statement does not accept one.
	PhaseNonChainable
	// PhaseClauseApplied means a where clause was folded in. The builder
	// returns to PhaseEmpty once the statement has run.
	PhaseClauseApplied
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "EMPTY"
	case PhaseChainable:
		return "CHAINABLE_STATEMENT_BUILT"
	case PhaseNonChainable:
		return "NON_CHAINABLE_STATEMENT_BUILT"
	case PhaseClauseApplied:
		return "CLAUSE_APPLIED"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// errNoEngine is wrapped in an engine failure when a builder without an
// engine is asked to run a statement.
var errNoEngine = errors.New("no engine configured")

// QueryBuilder accumulates SQL text across chained calls and runs it against
// an Engine.
//
//	qb := koapa.New(db)
//	res, err := qb.Select("users", "*").
//	    Where(ctx, func(c koapa.Columns) *koapa.ExpressionChain {
//	        return c.Get("username").Equals("test")
//	    })
//
// Statement methods only render text; nothing reaches the engine until Where
// or Execute. Both run the statement and reset the builder, whatever the
// outcome at the engine.
//
// The literal text (Query) interpolates values the way the builder has always
// printed them. The engine never sees that text: it receives the same
// statement with every value bound as a parameter (Statement).
//
// A QueryBuilder holds one in-flight statement and is not safe for concurrent
// use. Create one per request; the Engine may be shared.
type QueryBuilder struct {
	engine  Engine
	dialect Dialect
	columns *ColumnSet
	dryRun  io.Writer

	// isConstraint classifies engine errors as constraint violations.
	isConstraint func(error) bool

	state *BuilderState
	stack CallStack
	phase Phase

	// err is a misuse recorded by a statement method and reported by the
	// next Where or Execute.
	err error

	// declare holds the columns of an in-flight CREATE TABLE. They are
	// registered once the statement has run.
	declare *tableColumns
}

type tableColumns struct {
	table   string
	columns []string
}

// Option configures a QueryBuilder.
type Option func(*QueryBuilder)

// WithDialect sets the placeholder dialect. Defaults to DialectSQLite.
func WithDialect(d Dialect) Option {
	return func(qb *QueryBuilder) {
		qb.dialect = d
	}
}

// WithColumnSet shares a column registry between builders. CreateTable
// declares its columns in it.
func WithColumnSet(s *ColumnSet) Option {
	return func(qb *QueryBuilder) {
		qb.columns = s
	}
}

// WithTableColumns declares the columns a where callback may reference for table.
func WithTableColumns(table string, columns ...string) Option {
	return func(qb *QueryBuilder) {
		qb.columns.Declare(table, columns...)
	}
}

// WithDefaultColumns sets the columns offered for tables with no declaration.
func WithDefaultColumns(columns ...string) Option {
	return func(qb *QueryBuilder) {
		qb.columns.SetFallback(columns...)
	}
}

// WithDryRun writes each finished statement to w, one per line and
// terminated with ";", instead of running it. The engine is never called.
func WithDryRun(w io.Writer) Option {
	return func(qb *QueryBuilder) {
		qb.dryRun = w
	}
}

// WithConstraintCheck sets how engine errors are classified as constraint
// violations, which answer 409 instead of 500. The default recognises any
// error exposing a PostgreSQL SQLState or a SQLite result code.
func WithConstraintCheck(fn func(error) bool) Option {
	return func(qb *QueryBuilder) {
		qb.isConstraint = fn
	}
}

// New creates a builder that runs statements against engine.
// Options are applied in order; WithColumnSet should come before
// WithTableColumns or WithDefaultColumns.
func New(engine Engine, opts ...Option) *QueryBuilder {
	qb := &QueryBuilder{
		engine:       engine,
		dialect:      DialectSQLite,
		columns:      NewColumnSet(),
		isConstraint: isConstraintViolation,
		state: NewBuilderState(map[string]any{
			StateBuiltQuery: "",
			StateBoundQuery: "",
			StateBoundArgs:  []any(nil),
			StateStatus:     StatusIdle,
		}),
	}
	for _, opt := range opts {
		opt(qb)
	}
	return qb
}

// CreateTable renders CREATE TABLE. Once the statement has run, its columns
// are declared for later where calls on the table. Not chainable.
func (qb *QueryBuilder) CreateTable(table string, columns ...ColumnDef) *QueryBuilder {
	if !qb.emit(MethodCreateTable, table, sqldsl.CreateTable{Table: table, Columns: columns}, false) {
		return qb
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	qb.declare = &tableColumns{table: table, columns: names}
	return qb
}

// Insert renders INSERT INTO with columns in sorted key order. Not chainable.
func (qb *QueryBuilder) Insert(table string, values map[string]any) *QueryBuilder {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, len(keys))
	for i, k := range keys {
		fields[i] = Field{Name: k, Value: values[k]}
	}
	return qb.InsertFields(table, fields...)
}

// InsertFields renders INSERT INTO with columns in the given order. Not chainable.
func (qb *QueryBuilder) InsertFields(table string, fields ...Field) *QueryBuilder {
	qb.emit(MethodInsert, table, sqldsl.Insert{Table: table, Fields: fields}, false)
	return qb
}

// Select renders SELECT ... FROM. Chainable.
func (qb *QueryBuilder) Select(table string, columns ...string) *QueryBuilder {
	qb.emit(MethodSelect, table, sqldsl.Select{Table: table, Columns: columns}, false)
	return qb
}

// Update renders UPDATE ... SET. Chainable.
func (qb *QueryBuilder) Update(table string, set ...Field) *QueryBuilder {
	qb.emit(MethodUpdate, table, sqldsl.Update{Table: table, Set: set}, false)
	return qb
}

// Delete renders DELETE FROM, with fields joined by AND into a WHERE clause.
// Chainable; a later where clause extends the conditions with AND.
func (qb *QueryBuilder) Delete(table string, where ...Field) *QueryBuilder {
	stmt := sqldsl.Delete{Table: table, Where: where}
	qb.emit(MethodDelete, table, stmt, stmt.HasWhere())
	return qb
}

// DropTable renders DROP TABLE. Not chainable.
func (qb *QueryBuilder) DropTable(table string) *QueryBuilder {
	qb.emit(MethodDropTable, table, sqldsl.DropTable{Table: table}, false)
	return qb
}

// DropDatabase renders DROP DATABASE. Not chainable.
func (qb *QueryBuilder) DropDatabase() *QueryBuilder {
	qb.emit(MethodDropDatabase, "", sqldsl.DropDatabase{}, false)
	return qb
}

// emit starts a statement and records the call. A builder holds one
// statement at a time: while one is in flight (or a misuse is pending) the
// call is refused, recorded as ErrStatementInFlight and false is returned.
func (qb *QueryBuilder) emit(method, table string, stmt sqldsl.Expr, hasWhere bool) bool {
	if qb.err != nil {
		return false
	}
	if qb.phase != PhaseEmpty {
		top, _ := qb.stack.Peek()
		qb.err = newError(CodeStatementInFlight,
			fmt.Sprintf("%s cannot start while a %s statement is in flight", method, top.Method),
			map[string]any{"method": method, "table": table, "inFlight": top.Method})
		qb.state.SetStatus(StatusError)
		return false
	}
	qb.appendFragment(stmt)
	qb.state.SetStateKey(stateHasWhere, hasWhere)

	ok := IsChainable(method)
	qb.stack.Push(CallStackEntry{Method: method, Table: table, ChainableWithWhere: ok})
	if ok {
		qb.phase = PhaseChainable
	} else {
		qb.phase = PhaseNonChainable
	}
	return true
}

// appendFragment appends both renderings of expr to the state.
func (qb *QueryBuilder) appendFragment(expr sqldsl.Expr) {
	args, _ := qb.state.GetStateKey(StateBoundArgs).([]any)
	bound, args := expr.Bind(args)
	// Both keys always hold strings; reset seeds them.
	_ = qb.state.AppendToStateKey(StateBuiltQuery, expr.SQL())
	_ = qb.state.AppendToStateKey(StateBoundQuery, bound)
	qb.state.SetStateKey(StateBoundArgs, args)
}

// WhereFunc receives the declared columns and returns the terminal chain of
// the clause.
type WhereFunc func(c Columns) *ExpressionChain

// Where folds a boolean expression into the statement and runs it.
//
// A misuse recorded by a statement method is reported first and drops the
// statement. Then the previous call must be a chainable statement (select,
// update, delete), otherwise ErrWhereNotChainable is returned before fn runs. fn receives one
// fresh chain per declared column of the statement's table and must return a
// completed chain; an ACTIVE chain fails with ErrExpressionChainIncomplete.
// On these failures the statement is kept so the caller can retry or Discard.
//
// On success the statement runs exactly once and the builder is reset.
func (qb *QueryBuilder) Where(ctx context.Context, fn WhereFunc) (*Result, error) {
	if err := qb.pendingErr(); err != nil {
		return nil, err
	}
	top, ok := qb.stack.Peek()
	if !ok || !top.ChainableWithWhere {
		qb.state.SetStatus(StatusError)
		return nil, notChainableError(top, ok)
	}
	if fn == nil {
		qb.state.SetStatus(StatusError)
		return nil, newError(CodeInvalidOperand, "cannot use nil as a where callback", nil)
	}

	cols := NewColumns(top.Table, qb.columns.For(top.Table)...)
	chain := fn(cols)
	if chain == nil {
		qb.state.SetStatus(StatusError)
		return nil, newError(CodeInvalidOperand,
			"the where callback returned no expression chain",
			map[string]any{"table": top.Table})
	}
	if err := chain.Err(); err != nil {
		qb.state.SetStatus(StatusError)
		return nil, err
	}
	if chain.State() != ChainCompleted {
		qb.state.SetStatus(StatusError)
		return nil, incompleteChainError(chain)
	}

	extend, _ := qb.state.GetStateKey(stateHasWhere).(bool)
	qb.appendFragment(sqldsl.WhereClause{Cond: chainExpr{chain}, Extend: extend})
	qb.stack.Push(CallStackEntry{Method: MethodWhere, Table: top.Table})
	qb.phase = PhaseClauseApplied

	return qb.run(ctx, top.Method == MethodSelect)
}

// notChainableError names the call that refused the clause.
func notChainableError(top CallStackEntry, ok bool) *Error {
	if !ok {
		return newError(CodeWhereNotChainable,
			"where must follow a select, update or delete call",
			map[string]any{"previousMethod": nil})
	}
	return newError(CodeWhereNotChainable,
		fmt.Sprintf("where cannot follow %s", top.Method),
		map[string]any{"previousMethod": top.Method, "table": top.Table})
}

// chainExpr adapts a completed chain to the SQL DSL.
type chainExpr struct {
	c *ExpressionChain
}

func (e chainExpr) SQL() string { return e.c.EvalToString() }

func (e chainExpr) Bind(args []any) (string, []any) {
	s, bound := e.c.Bound()
	return s, append(args, bound...)
}

// pendingErr reports a misuse recorded by a statement method. The builder
// is reset so nothing of the refused sequence reaches the engine.
func (qb *QueryBuilder) pendingErr() error {
	err := qb.err
	if err != nil {
		qb.reset(StatusError)
	}
	return err
}

// Execute runs the statement as built and resets the builder.
// It returns ErrEmptyStatement when nothing has been built.
func (qb *QueryBuilder) Execute(ctx context.Context) (*Result, error) {
	if err := qb.pendingErr(); err != nil {
		return nil, err
	}
	if qb.state.GetString(StateBuiltQuery) == "" {
		qb.state.SetStatus(StatusError)
		return nil, newError(CodeEmptyStatement, "there is no statement to execute", nil)
	}
	top, _ := qb.stack.Peek()
	return qb.run(ctx, top.Method == MethodSelect)
}

// run sends the statement to the engine (or the dry-run writer), then resets
// the builder and records the outcome in its status.
func (qb *QueryBuilder) run(ctx context.Context, query bool) (res *Result, err error) {
	literal := qb.Query()
	bound, args := qb.Statement()
	defer func() {
		switch {
		case err == nil:
			if d := qb.declare; d != nil {
				qb.columns.Declare(d.table, d.columns...)
			}
			qb.reset(StatusQuerySuccess)
		case IsEngineFailureErr(err):
			qb.reset(StatusQueryError)
		default:
			qb.reset(StatusError)
		}
	}()

	if qb.dryRun != nil {
		if _, err := fmt.Fprintf(qb.dryRun, "%s;\n", literal); err != nil {
			return nil, err
		}
		return &Result{Query: literal, DryRun: true}, nil
	}

	if qb.engine == nil {
		return nil, engineFailure(literal, errNoEngine, qb.isConstraint)
	}

	qb.state.SetStatus(StatusRunningQuery)
	res = &Result{Query: literal}
	if query {
		rows, err := qb.engine.QueryContext(ctx, bound, args...)
		if err != nil {
			return nil, engineFailure(literal, err, qb.isConstraint)
		}
		res.Columns, res.Rows, err = scanRows(rows)
		if err != nil {
			return nil, engineFailure(literal, err, qb.isConstraint)
		}
		return res, nil
	}

	out, err := qb.engine.ExecContext(ctx, bound, args...)
	if err != nil {
		return nil, engineFailure(literal, err, qb.isConstraint)
	}
	// Not every driver reports these; zero is fine.
	res.RowsAffected, _ = out.RowsAffected()
	res.LastInsertID, _ = out.LastInsertId()
	return res, nil
}

// Discard drops the in-flight statement, and any pending misuse, without
// running it.
func (qb *QueryBuilder) Discard() {
	qb.reset(StatusIdle)
}

// reset clears the statement, the call stack and any pending misuse.
func (qb *QueryBuilder) reset(status Status) {
	qb.state.Reset()
	qb.state.SetStatus(status)
	qb.stack.Clear()
	qb.phase = PhaseEmpty
	qb.err = nil
	qb.declare = nil
}

// Query returns the literal text of the in-flight statement.
func (qb *QueryBuilder) Query() string {
	return qb.state.GetString(StateBuiltQuery)
}

// Statement returns the in-flight statement as the engine will receive it:
// placeholders in the builder's dialect and the values to bind.
func (qb *QueryBuilder) Statement() (string, []any) {
	args, _ := qb.state.GetStateKey(StateBoundArgs).([]any)
	return qb.dialect.Rebind(qb.state.GetString(StateBoundQuery)), slices.Clone(args)
}

// CallStack returns the calls recorded since the last reset, oldest first.
func (qb *QueryBuilder) CallStack() []CallStackEntry {
	return qb.stack.FullStack()
}

// Phase returns the builder's position in the statement lifecycle.
func (qb *QueryBuilder) Phase() Phase { return qb.phase }

// Status returns what the builder last did.
func (qb *QueryBuilder) Status() Status { return qb.state.Status() }

// Dialect returns the builder's placeholder dialect.
func (qb *QueryBuilder) Dialect() Dialect { return qb.dialect }

// Columns returns the builder's column registry.
func (qb *QueryBuilder) Columns() *ColumnSet { return qb.columns }
