package koapa

import "slices"

// CallStackEntry records one builder method call.
type CallStackEntry struct {
	Method             string
	Table              string
	ChainableWithWhere bool
}

// CallStack is the ordered record of builder calls since the last statement
// finished. The zero value is an empty stack.
type CallStack struct {
	entries []CallStackEntry
}

// Push appends an entry.
func (s *CallStack) Push(e CallStackEntry) {
	s.entries = append(s.entries, e)
}

// Pop removes the most recent entry. Popping an empty stack does nothing.
func (s *CallStack) Pop() {
	if len(s.entries) > 0 {
		s.entries = s.entries[:len(s.entries)-1]
	}
}

// Peek returns the most recent entry. On an empty stack it returns the zero
// entry, which is not chainable, and false.
func (s *CallStack) Peek() (CallStackEntry, bool) {
	if len(s.entries) == 0 {
		return CallStackEntry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Clear empties the stack.
func (s *CallStack) Clear() {
	s.entries = nil
}

// Len returns the number of entries.
func (s *CallStack) Len() int { return len(s.entries) }

// FullStack returns a copy of the entries, oldest first.
func (s *CallStack) FullStack() []CallStackEntry {
	return slices.Clone(s.entries)
}
