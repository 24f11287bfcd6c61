package koapa

import (
	"fmt"
	"maps"
)

// Keys the builder keeps in its state.
const (
	StateBuiltQuery = "builtQuery" // literal SQL text of the statement
	StateBoundQuery = "boundQuery" // the same text with "?" placeholders
	StateBoundArgs  = "boundArgs"  // []any bound to the placeholders
	StateStatus     = "status"     // Status
)

// Status tracks what the builder last did with its statement.
type Status int

const (
	// StatusIdle is the default: nothing is running.
	StatusIdle Status = iota
	// StatusRunningQuery is set while the engine runs a statement.
	StatusRunningQuery
	// StatusQuerySuccess is set after the engine accepted a statement.
	StatusQuerySuccess
	// StatusQueryError is set after the engine rejected a statement.
	StatusQueryError
	// StatusError is set after a builder-level failure.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunningQuery:
		return "RUNNING_QUERY"
	case StatusQuerySuccess:
		return "QUERY_SUCCESS"
	case StatusQueryError:
		return "QUERY_ERROR"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// BuilderState is key/value scratch space for an in-progress statement.
type BuilderState struct {
	state   map[string]any
	initial map[string]any
}

// NewBuilderState returns a state seeded with initial. Reset returns to this
// seed.
func NewBuilderState(initial map[string]any) *BuilderState {
	s := &BuilderState{initial: maps.Clone(initial)}
	s.Reset()
	return s
}

// Reset discards every key and restores the initial seed.
func (s *BuilderState) Reset() {
	s.state = make(map[string]any, len(s.initial))
	maps.Copy(s.state, s.initial)
}

// SetStateKey sets key to value.
func (s *BuilderState) SetStateKey(key string, value any) {
	if s.state == nil {
		s.state = make(map[string]any)
	}
	s.state[key] = value
}

// GetStateKey returns the value of key, or nil.
func (s *BuilderState) GetStateKey(key string) any {
	return s.state[key]
}

// GetString returns the value of key if it holds a string.
func (s *BuilderState) GetString(key string) string {
	v, _ := s.state[key].(string)
	return v
}

// AppendToStateKey concatenates value onto the string held by key. A missing
// key starts out empty. A key holding anything other than a string is left
// unchanged and ErrStateKeyNotString is returned.
func (s *BuilderState) AppendToStateKey(key, value string) error {
	cur, ok := s.state[key]
	if !ok || cur == nil {
		s.SetStateKey(key, value)
		return nil
	}
	str, ok := cur.(string)
	if !ok {
		return fmt.Errorf("%w: %q holds %T", ErrStateKeyNotString, key, cur)
	}
	s.state[key] = str + value
	return nil
}

// SetState replaces the whole mapping.
func (s *BuilderState) SetState(state map[string]any) {
	s.state = make(map[string]any, len(state))
	maps.Copy(s.state, state)
}

// MergeState shallow-merges state over the current mapping.
func (s *BuilderState) MergeState(state map[string]any) {
	if s.state == nil {
		s.state = make(map[string]any, len(state))
	}
	maps.Copy(s.state, state)
}

// State returns a copy of the mapping.
func (s *BuilderState) State() map[string]any {
	return maps.Clone(s.state)
}

// Status returns the current status; StatusIdle when unset.
func (s *BuilderState) Status() Status {
	st, _ := s.state[StateStatus].(Status)
	return st
}

// SetStatus records the builder status.
func (s *BuilderState) SetStatus(st Status) {
	s.SetStateKey(StateStatus, st)
}

// IsIdle reports whether no statement is running.
func (s *BuilderState) IsIdle() bool {
	return s.Status() == StatusIdle
}
