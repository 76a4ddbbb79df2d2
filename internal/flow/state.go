package flow

// State is the shared run state nodes read in prepare and write in
// finalize. It is owned by the run's single control goroutine; batch
// sub-executions work on clones and merge results back through the
// control goroutine, never concurrently.
type State struct {
	values map[string]any
}

// NewState creates empty run state.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Get returns the value for a key.
func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the string value for a key, or "" if absent or not
// a string.
func (s *State) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Set stores a value.
func (s *State) Set(key string, v any) {
	s.values[key] = v
}

// Delete removes a key.
func (s *State) Delete(key string) {
	delete(s.values, key)
}

// Clone returns a shallow copy for an independent sub-execution.
func (s *State) Clone() *State {
	c := NewState()
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}
