// Package session keeps per-session state and the registry of active sessions.
package session

import (
	"errors"
	"sync"
)

// ErrDuplicateSession is returned when an id is already registered.
var ErrDuplicateSession = errors.New("session already started")

// Registry maps session id to state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewRegistry returns empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*State)}
}

// Create inserts state unless the id is taken.
func (r *Registry) Create(id string, state *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[id]; exists {
		return ErrDuplicateSession
	}
	r.sessions[id] = state
	return nil
}

// Get returns state and bool.
func (r *Registry) Get(id string) (*State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.sessions[id]
	return state, ok
}

// Remove deletes and returns state.
func (r *Registry) Remove(id string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return state, ok
}

// Drain removes every entry and returns them.
func (r *Registry) Drain() []*State {
	r.mu.Lock()
	defer r.mu.Unlock()
	states := make([]*State, 0, len(r.sessions))
	for id, state := range r.sessions {
		states = append(states, state)
		delete(r.sessions, id)
	}
	return states
}

// Len returns number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
