// Package koapa is a stateful, fluent SQL query builder.
//
// A QueryBuilder accumulates SQL text across chained calls and runs it
// against an injected engine (*sql.DB, *sql.Tx or *sql.Conn). Two runtime
// state machines guard what reaches the engine:
//
//   - A where clause may only follow a statement that accepts one. Select,
//     Update and Delete do; Insert, CreateTable, DropTable and DropDatabase
//     do not. The builder's CallStack records every call and Where checks
//     its top entry before doing anything else.
//   - The boolean expression given to Where must be complete. Each
//     ExpressionChain is ACTIVE until a comparison is applied, and Where
//     refuses a chain that is still ACTIVE.
//
// # Basic Usage
//
//	db, _ := sql.Open("sqlite", "koapa-core.db")
//	qb := koapa.New(db)
//
//	_, err := qb.CreateTable("users",
//	    koapa.ColumnDef{Name: "userid", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
//	    koapa.ColumnDef{Name: "username", Type: "TEXT", NotNull: true},
//	).Execute(ctx)
//
//	res, err := qb.Select("users", "*").
//	    Where(ctx, func(c koapa.Columns) *koapa.ExpressionChain {
//	        return c.Get("username").Equals("test").And(c.Get("userid")).GreaterThan(3)
//	    })
//
// The where call above renders
//
//	SELECT * FROM users WHERE username = test AND userid > 3
//
// as its literal text, and sends the engine
//
//	SELECT * FROM users WHERE username = ? AND userid > ?
//
// with "test" and 3 bound.
//
// # Columns
//
// A where callback only sees declared columns. A CREATE TABLE that ran
// declares the columns of its table; WithTableColumns declares others; tables
// with no declaration get DefaultColumns. Table names match regardless of
// case. Asking for anything else, as a chain or as a comparison operand,
// returns a chain carrying ErrUnknownColumn.
//
// # Lifecycle
//
// Where and Execute run the statement once and reset the builder: the text,
// the bound arguments and the call stack are cleared. Discard drops a
// statement without running it. A builder holds a single statement at a time:
// a statement method called while another is in flight is refused, and the
// next Where or Execute reports ErrStatementInFlight and drops both. A
// builder must not be shared between goroutines; create one per request.
//
// # Errors
//
// Failures are *Error values carrying a Code, a message and details. Each
// unwraps to a sentinel (ErrWhereNotChainable, ErrExpressionChainIncomplete,
// ErrInvalidOperand, ErrChainAlreadyCompleted, ErrUnknownColumn,
// ErrEmptyStatement, ErrStatementInFlight, ErrEngineFailure) so errors.Is and the Is*Err helpers
// work on wrapped errors. StatusCode maps an error to an HTTP status for
// hosts that answer requests.
package koapa
