package koapa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/koapa/koapa"
)

func TestCallStack(t *testing.T) {
	var s koapa.CallStack

	top, ok := s.Peek()
	assert.False(t, ok)
	assert.False(t, top.ChainableWithWhere, "empty stack must peek as not chainable")

	s.Pop() // no-op on empty stack
	assert.Equal(t, 0, s.Len())

	s.Push(koapa.CallStackEntry{Method: koapa.MethodInsert, Table: "users"})
	s.Push(koapa.CallStackEntry{Method: koapa.MethodSelect, Table: "users", ChainableWithWhere: true})
	assert.Equal(t, 2, s.Len())

	top, ok = s.Peek()
	assert.True(t, ok)
	assert.Equal(t, koapa.MethodSelect, top.Method)
	assert.True(t, top.ChainableWithWhere)

	full := s.FullStack()
	full[0].Method = "mutated"
	assert.Equal(t, koapa.MethodInsert, s.FullStack()[0].Method, "FullStack must return a copy")

	s.Pop()
	top, _ = s.Peek()
	assert.Equal(t, koapa.MethodInsert, top.Method)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.FullStack())
}
