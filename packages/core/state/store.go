package state

import (
	"maps"
	"sync"
)

// Store holds everything a template can see during one run: the last
// response body of every executed request, keyed by request name, and the
// user variables merged from every file processed so far.
//
// A Store is created once per run and never reset.
type Store struct {
	mu        sync.RWMutex
	responses map[string]any
	variables map[string]any
}

func NewStore() *Store {
	return &Store{
		responses: make(map[string]any),
		variables: make(map[string]any),
	}
}

// SetResponse records the body of the latest execution of a request,
// replacing any earlier one.
func (s *Store) SetResponse(requestName string, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[requestName] = body
}

func (s *Store) Response(requestName string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.responses[requestName]
	return v, ok
}

// MergeVariables adds vars to the run, overriding existing keys.
func (s *Store) MergeVariables(vars map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range vars {
		s.variables[k] = v
	}
}

func (s *Store) Variable(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variables[name]
	return v, ok
}

// Responses returns a copy of all recorded responses.
func (s *Store) Responses() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.responses)
}

// Variables returns a copy of the merged variables.
func (s *Store) Variables() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.variables)
}

// Scope is the template namespace: responses and variables in one map.
// A variable shadows a response with the same name.
func (s *Store) Scope() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scope := make(map[string]any, len(s.responses)+len(s.variables))
	maps.Copy(scope, s.responses)
	maps.Copy(scope, s.variables)
	return scope
}
