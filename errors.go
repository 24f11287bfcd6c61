package koapa

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is the machine-readable kind of a builder failure.
type Code string

// Error codes. Every builder failure carries exactly one.
const (
	CodeWhereNotChainable         Code = "WHERE_NOT_CHAINABLE"
	CodeExpressionChainIncomplete Code = "EXPRESSION_CHAIN_INCOMPLETE"
	CodeInvalidOperand            Code = "INVALID_OPERAND"
	CodeChainAlreadyCompleted     Code = "CHAIN_ALREADY_COMPLETED"
	CodeUnknownColumn             Code = "UNKNOWN_COLUMN"
	CodeEmptyStatement            Code = "EMPTY_STATEMENT"
	CodeStatementInFlight         Code = "STATEMENT_IN_FLIGHT"
	CodeEngineFailure             Code = "ENGINE_FAILURE"
)

// Sentinel errors for each failure kind. A returned *Error unwraps to the
// sentinel matching its code, so errors.Is works on wrapped errors too.
//
// All builder failures are fail-fast and not retryable. They are raised at the
// call that violates the invariant; only ErrEngineFailure is deferred until the
// statement runs.
var (
	// ErrWhereNotChainable is returned when Where follows a statement that
	// does not accept a clause (insert, create table, drop table, drop database),
	// or when nothing has been built yet.
	ErrWhereNotChainable = errors.New("koapa: where clause is not chainable")

	// ErrExpressionChainIncomplete is returned when a where callback hands back
	// a chain that has no comparison applied.
	ErrExpressionChainIncomplete = errors.New("koapa: expression chain incomplete")

	// ErrInvalidOperand is returned when a comparison or conjunction receives nil.
	ErrInvalidOperand = errors.New("koapa: invalid operand")

	// ErrChainAlreadyCompleted is returned when a comparison is applied to a
	// chain that already ends in one.
	ErrChainAlreadyCompleted = errors.New("koapa: expression chain already completed")

	// ErrUnknownColumn is returned when a where callback asks for a column the
	// table does not declare.
	ErrUnknownColumn = errors.New("koapa: unknown column")

	// ErrEmptyStatement is returned by Execute when nothing has been built.
	ErrEmptyStatement = errors.New("koapa: empty statement")

	// ErrStatementInFlight is returned when a statement method is called while
	// another statement is still in flight. A builder runs one statement at a
	// time; Execute, Where or Discard must come first.
	ErrStatementInFlight = errors.New("koapa: statement already in flight")

	// ErrEngineFailure wraps an error returned by the underlying engine.
	ErrEngineFailure = errors.New("koapa: engine failure")

	// ErrStateKeyNotString is returned when appending to a state key that holds
	// a non-string value.
	ErrStateKeyNotString = errors.New("koapa: state key does not hold a string")
)

var sentinels = map[Code]error{
	CodeWhereNotChainable:         ErrWhereNotChainable,
	CodeExpressionChainIncomplete: ErrExpressionChainIncomplete,
	CodeInvalidOperand:            ErrInvalidOperand,
	CodeChainAlreadyCompleted:     ErrChainAlreadyCompleted,
	CodeUnknownColumn:             ErrUnknownColumn,
	CodeEmptyStatement:            ErrEmptyStatement,
	CodeStatementInFlight:         ErrStatementInFlight,
	CodeEngineFailure:             ErrEngineFailure,
}

// Error is a typed builder failure with a code, a human message and optional
// diagnostic details. Err holds the underlying cause for engine failures.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func newError(code Code, msg string, details map[string]any) *Error {
	return &Error{Code: code, Message: msg, Details: details}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the sentinel for the code and the wrapped cause, if any.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Code]; ok {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Status returns the HTTP status a host should answer with for this error.
func (e *Error) Status() int {
	switch e.Code {
	case CodeWhereNotChainable, CodeInvalidOperand, CodeChainAlreadyCompleted,
		CodeUnknownColumn, CodeEmptyStatement, CodeStatementInFlight:
		return http.StatusBadRequest
	case CodeEngineFailure:
		if c, _ := e.Details["constraint"].(bool); c {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// AsError returns the *Error in err's chain, if there is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusCode maps any error to an HTTP status. Errors that are not builder
// failures map to 500.
func StatusCode(err error) int {
	if e, ok := AsError(err); ok {
		return e.Status()
	}
	return http.StatusInternalServerError
}

// IsWhereNotChainableErr returns true if err is or wraps ErrWhereNotChainable.
func IsWhereNotChainableErr(err error) bool {
	return errors.Is(err, ErrWhereNotChainable)
}

// IsExpressionChainIncompleteErr returns true if err is or wraps ErrExpressionChainIncomplete.
func IsExpressionChainIncompleteErr(err error) bool {
	return errors.Is(err, ErrExpressionChainIncomplete)
}

// IsInvalidOperandErr returns true if err is or wraps ErrInvalidOperand.
func IsInvalidOperandErr(err error) bool {
	return errors.Is(err, ErrInvalidOperand)
}

// IsChainAlreadyCompletedErr returns true if err is or wraps ErrChainAlreadyCompleted.
func IsChainAlreadyCompletedErr(err error) bool {
	return errors.Is(err, ErrChainAlreadyCompleted)
}

// IsUnknownColumnErr returns true if err is or wraps ErrUnknownColumn.
func IsUnknownColumnErr(err error) bool {
	return errors.Is(err, ErrUnknownColumn)
}

// IsEmptyStatementErr returns true if err is or wraps ErrEmptyStatement.
func IsEmptyStatementErr(err error) bool {
	return errors.Is(err, ErrEmptyStatement)
}

// IsStatementInFlightErr returns true if err is or wraps ErrStatementInFlight.
func IsStatementInFlightErr(err error) bool {
	return errors.Is(err, ErrStatementInFlight)
}

// IsEngineFailureErr returns true if err is or wraps ErrEngineFailure.
func IsEngineFailureErr(err error) bool {
	return errors.Is(err, ErrEngineFailure)
}

// SQLite primary result code for constraint violations.
const sqliteConstraint = 19

// PostgreSQL SQLSTATE class for integrity constraint violations.
const pgIntegrityClass = "23"

// engineFailure wraps a driver error. The driver's own code is recorded
// when the error exposes one, and isConstraint decides whether it is a
// constraint violation.
func engineFailure(query string, err error, isConstraint func(error) bool) *Error {
	details := map[string]any{"query": query}
	if state := sqlState(err); state != "" {
		details["sqlstate"] = state
	} else if code, ok := sqliteCode(err); ok {
		details["code"] = code
	}
	if isConstraint == nil {
		isConstraint = isConstraintViolation
	}
	if isConstraint(err) {
		details["constraint"] = true
	}
	return &Error{
		Code:    CodeEngineFailure,
		Message: "engine rejected statement",
		Details: details,
		Err:     err,
	}
}

// isConstraintViolation classifies err through the SQLState and Code methods
// driver errors expose, without importing any driver package. pkg/engine
// installs a check on the concrete driver types instead.
func isConstraintViolation(err error) bool {
	if state := sqlState(err); state != "" {
		return strings.HasPrefix(state, pgIntegrityClass)
	}
	if code, ok := sqliteCode(err); ok {
		return code&0xff == sqliteConstraint
	}
	return false
}

// sqlState extracts a PostgreSQL SQLSTATE code from err.
// Works with pgx (*pgconn.PgError) and lib/pq (*pq.Error).
func sqlState(err error) string {
	type sqlStateErr interface{ SQLState() string }
	var e sqlStateErr
	if errors.As(err, &e) {
		return e.SQLState()
	}
	return ""
}

// sqliteCode extracts the extended result code from a modernc.org/sqlite error.
func sqliteCode(err error) (int, bool) {
	type codeErr interface{ Code() int }
	var e codeErr
	if errors.As(err, &e) {
		return e.Code(), true
	}
	return 0, false
}
