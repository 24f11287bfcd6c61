package koapa_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koapa/koapa"
)

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		is     func(error) bool
		status int
	}{
		{"where not chainable", koapa.ErrWhereNotChainable, koapa.IsWhereNotChainableErr, http.StatusBadRequest},
		{"chain incomplete", koapa.ErrExpressionChainIncomplete, koapa.IsExpressionChainIncompleteErr, http.StatusInternalServerError},
		{"invalid operand", koapa.ErrInvalidOperand, koapa.IsInvalidOperandErr, http.StatusBadRequest},
		{"chain completed", koapa.ErrChainAlreadyCompleted, koapa.IsChainAlreadyCompletedErr, http.StatusBadRequest},
		{"unknown column", koapa.ErrUnknownColumn, koapa.IsUnknownColumnErr, http.StatusBadRequest},
		{"empty statement", koapa.ErrEmptyStatement, koapa.IsEmptyStatementErr, http.StatusBadRequest},
		{"statement in flight", koapa.ErrStatementInFlight, koapa.IsStatementInFlightErr, http.StatusBadRequest},
		{"engine failure", koapa.ErrEngineFailure, koapa.IsEngineFailureErr, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.is(tt.err))
			assert.True(t, tt.is(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.is(errors.New("other")))
			assert.False(t, tt.is(nil))
		})
	}
}

func TestErrorStatusFromBuilder(t *testing.T) {
	qb := koapa.New(nil).Insert("users", map[string]any{"username": "a"})
	_, err := qb.Where(t.Context(), usernameIsTest)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, koapa.IsWhereNotChainableErr(wrapped))
	assert.Equal(t, http.StatusBadRequest, koapa.StatusCode(wrapped))

	e, ok := koapa.AsError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, koapa.CodeWhereNotChainable, e.Code)
}

func TestStatusCodeForeignError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, koapa.StatusCode(errors.New("boom")))

	_, ok := koapa.AsError(errors.New("boom"))
	assert.False(t, ok)
}
