// Package registry maps each live connection to the session identity it has
// been claimed for. It is the single answer to "which session does this
// socket belong to" during teardown routing, and it must never reference a
// session that no longer exists: entries are removed exactly once, at
// connection-close time or when their session is torn down.
package registry

import (
	"errors"
	"sync"

	"github.com/wricardo/livequiz/quiz/game"
)

// ErrConflict is returned when a connection attempts to re-identify as a
// different session or identity than the one it already holds.
var ErrConflict = errors.New("connection already associated with a different identity")

// Association records what a connection has been identified as.
type Association struct {
	SessionID     string
	ParticipantID string
	IsHost        bool
}

// Registry is the process-wide connection table. Lookup and removal are
// O(1); the lock covers only map access, never session mutation.
type Registry struct {
	mu    sync.RWMutex
	conns map[game.Conn]Association
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		conns: make(map[game.Conn]Association),
	}
}

// Associate binds c to the given identity. Re-associating with the same
// identity is idempotent (duplicate join messages are harmless); switching
// to a different session or identity fails with ErrConflict.
func (r *Registry) Associate(c game.Conn, assoc Association) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.conns[c]; ok && existing != assoc {
		return ErrConflict
	}
	r.conns[c] = assoc
	return nil
}

// Lookup returns the association for c, if any.
func (r *Registry) Lookup(c game.Conn) (Association, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	assoc, ok := r.conns[c]
	return assoc, ok
}

// Remove drops the association for c. Idempotent; removing an unknown
// connection is a no-op.
func (r *Registry) Remove(c game.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, c)
}

// RemoveSession drops every association pointing at sessionID. Called when
// a session is torn down so no entry outlives its session.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c, assoc := range r.conns {
		if assoc.SessionID == sessionID {
			delete(r.conns, c)
		}
	}
}

// Count returns the number of live associations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
