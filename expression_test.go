package koapa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koapa/koapa"
)

func TestExpressionChain_Comparisons(t *testing.T) {
	tests := []struct {
		name  string
		chain *koapa.ExpressionChain
		want  string
	}{
		{"equals", koapa.NewExpressionChain("username").Equals("test"), "username = test"},
		{"does not equal", koapa.NewExpressionChain("username").DoesNotEquals("test"), "username != test"},
		{"greater than", koapa.NewExpressionChain("userid").GreaterThan(3), "userid > 3"},
		{"less than", koapa.NewExpressionChain("userid").LessThan(10), "userid < 10"},
		{
			"column to column",
			koapa.NewExpressionChain("username").Equals(koapa.NewExpressionChain("password")),
			"username = password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.chain.Err())
			assert.Equal(t, koapa.ChainCompleted, tt.chain.State())
			assert.Equal(t, tt.want, tt.chain.EvalToString())
		})
	}
}

func TestExpressionChain_StartsActive(t *testing.T) {
	c := koapa.NewExpressionChain("username")
	assert.Equal(t, koapa.ChainActive, c.State())
	assert.Equal(t, "username", c.Column())
	assert.Equal(t, "username", c.CurrentExpression())
	assert.Equal(t, "", c.PriorExpression())
	assert.Equal(t, "ACTIVE", c.State().String())
}

func TestExpressionChain_And(t *testing.T) {
	cols := koapa.NewColumns("users", "userid", "username", "password")

	next := cols.Get("username").Equals("test").And(cols.Get("password"))
	require.NoError(t, next.Err())
	assert.Equal(t, koapa.ChainActive, next.State())
	assert.Equal(t, "password", next.Column())
	assert.Equal(t, "username = test AND ", next.PriorExpression())

	done := next.Equals("secret").And(cols.Get("userid")).GreaterThan(3)
	require.NoError(t, done.Err())
	assert.Equal(t, koapa.ChainCompleted, done.State())
	assert.Equal(t, "username = test AND password = secret AND userid > 3", done.EvalToString())

	bound, args := done.Bound()
	assert.Equal(t, "username = ? AND password = ? AND userid > ?", bound)
	assert.Equal(t, []any{"test", "secret", 3}, args)
}

func TestExpressionChain_PriorExpression(t *testing.T) {
	cols := koapa.NewColumns("users", "userid", "username", "password")

	tests := []struct {
		name      string
		chain     *koapa.ExpressionChain
		wantPrior string
		wantState koapa.ChainState
	}{
		{
			name:      "fresh column",
			chain:     cols.Get("username"),
			wantPrior: "",
			wantState: koapa.ChainActive,
		},
		{
			name:      "single comparison",
			chain:     cols.Get("username").Equals("test"),
			wantPrior: "username = test",
			wantState: koapa.ChainCompleted,
		},
		{
			name:      "after and",
			chain:     cols.Get("username").Equals("test").And(cols.Get("password")),
			wantPrior: "username = test AND ",
			wantState: koapa.ChainActive,
		},
		{
			name:      "comparison after and",
			chain:     cols.Get("username").Equals("test").And(cols.Get("password")).Equals("secret"),
			wantPrior: "username = test AND username = test AND password = secret",
			wantState: koapa.ChainCompleted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.chain.Err())
			assert.Equal(t, tt.wantPrior, tt.chain.PriorExpression())
			assert.Equal(t, tt.wantState, tt.chain.State())
		})
	}
}

func TestExpressionChain_UnknownColumnOperand(t *testing.T) {
	cols := koapa.NewColumns("users", "userid", "username")

	tests := []struct {
		name  string
		chain *koapa.ExpressionChain
	}{
		{"equals", cols.Get("username").Equals(cols.Get("no_such_column"))},
		{"does not equal", cols.Get("username").DoesNotEquals(cols.Get("no_such_column"))},
		{"greater than", cols.Get("userid").GreaterThan(cols.Get("no_such_column"))},
		{"less than after and", cols.Get("userid").Equals(1).And(cols.Get("username")).LessThan(cols.Get("email"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.chain.Err())
			assert.True(t, koapa.IsUnknownColumnErr(tt.chain.Err()))
			assert.Equal(t, koapa.ChainActive, tt.chain.State())
		})
	}
}

func TestExpressionChain_ValueSemantics(t *testing.T) {
	cols := koapa.NewColumns("users", "userid")
	id := cols.Get("userid")

	ranged := id.GreaterThan(1).And(id).LessThan(9)
	require.NoError(t, ranged.Err())
	assert.Equal(t, "userid > 1 AND userid < 9", ranged.EvalToString())

	// The column chain itself is untouched.
	assert.Equal(t, koapa.ChainActive, id.State())
	assert.Equal(t, "userid", id.EvalToString())
}

func TestExpressionChain_NilOperand(t *testing.T) {
	var nilChain *koapa.ExpressionChain
	c := koapa.NewExpressionChain("username")

	tests := []struct {
		name  string
		chain *koapa.ExpressionChain
	}{
		{"equals nil", c.Equals(nil)},
		{"does not equal nil", c.DoesNotEquals(nil)},
		{"greater than nil", c.GreaterThan(nil)},
		{"less than typed nil chain", c.LessThan(nilChain)},
		{"and nil", c.Equals("x").And(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.chain.Err())
			assert.True(t, koapa.IsInvalidOperandErr(tt.chain.Err()))
		})
	}
}

func TestExpressionChain_ComparisonOnCompletedChain(t *testing.T) {
	c := koapa.NewExpressionChain("username").Equals("a").Equals("b")
	require.Error(t, c.Err())
	assert.True(t, koapa.IsChainAlreadyCompletedErr(c.Err()))
}

func TestExpressionChain_AndRequiresCompletedReceiver(t *testing.T) {
	c := koapa.NewExpressionChain("username").And(koapa.NewExpressionChain("password"))
	require.Error(t, c.Err())
	assert.True(t, koapa.IsExpressionChainIncompleteErr(c.Err()))
}

func TestExpressionChain_AndRejectsCompletedOperand(t *testing.T) {
	other := koapa.NewExpressionChain("password").Equals("x")
	c := koapa.NewExpressionChain("username").Equals("a").And(other)
	require.Error(t, c.Err())
	assert.True(t, koapa.IsChainAlreadyCompletedErr(c.Err()))
}

func TestExpressionChain_ErrorsAreSticky(t *testing.T) {
	c := koapa.NewExpressionChain("username").Equals(nil).And(koapa.NewExpressionChain("password")).Equals("x")
	require.Error(t, c.Err())
	assert.True(t, koapa.IsInvalidOperandErr(c.Err()))
	assert.Equal(t, koapa.ChainActive, c.State())
}

func TestColumns_UnknownColumn(t *testing.T) {
	cols := koapa.NewColumns("users", "userid", "username")
	assert.True(t, cols.Has("username"))
	assert.False(t, cols.Has("email"))
	assert.Equal(t, []string{"userid", "username"}, cols.Names())

	c := cols.Get("email").Equals("x")
	require.Error(t, c.Err())
	assert.True(t, koapa.IsUnknownColumnErr(c.Err()))

	e, ok := koapa.AsError(c.Err())
	require.True(t, ok)
	assert.Equal(t, "email", e.Details["column"])
	assert.Equal(t, "users", e.Details["table"])
}

func TestColumnSet_Fallback(t *testing.T) {
	s := koapa.NewColumnSet()
	assert.Equal(t, koapa.DefaultColumns, s.For("anything"))

	s.Declare("posts", "id", "title")
	assert.Equal(t, []string{"id", "title"}, s.For("posts"))
	_, ok := s.Lookup("users")
	assert.False(t, ok)

	s.SetFallback("id")
	assert.Equal(t, []string{"id"}, s.For("users"))
}

func TestColumnSet_TableNamesIgnoreCase(t *testing.T) {
	s := koapa.NewColumnSet()
	s.Declare("useraccounts", "id", "login")

	assert.Equal(t, []string{"id", "login"}, s.For("UserAccounts"))
	cols, ok := s.Lookup("USERACCOUNTS")
	assert.True(t, ok)
	assert.Equal(t, []string{"id", "login"}, cols)

	s.Declare("Posts", "id")
	assert.Equal(t, []string{"id"}, s.For("posts"))
}
