package sim

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry tracks the active sessions of a process keyed by profile ID.
// All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers sess.
//
// Precondition: sess must be non-nil.
// Postcondition: Returns an error if a session with the same ID is already registered.
func (r *Registry) Add(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[sess.ID()]; exists {
		return fmt.Errorf("session %q already running", sess.ID())
	}
	r.sessions[sess.ID()] = sess
	return nil
}

// Remove unregisters and returns the session for id.
//
// Postcondition: Returns an error if no session is registered under id.
func (r *Registry) Remove(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q not found", id)
	}
	delete(r.sessions, id)
	return sess, nil
}

// Get returns the session for id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// All returns every registered session ordered by ID.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Session) int { return strings.Compare(a.ID(), b.ID()) })
	return out
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SaveAll saves every session, continuing past failures.
//
// Postcondition: Returns the joined errors of the sessions that failed to save.
func (r *Registry) SaveAll(ctx context.Context) error {
	var errs []error
	for _, sess := range r.All() {
		if err := sess.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %q: %w", sess.ID(), err))
		}
	}
	return errors.Join(errs...)
}
