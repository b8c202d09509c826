// Package session enforces a single active session per user: every login
// registers a fresh session ID, and requests carrying any older ID are
// rejected by the middleware, which force-logs-out the stale client.
package session

import (
	"sync"

	"github.com/google/uuid"
)

type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]uuid.UUID // userID -> most recent session ID
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]uuid.UUID)}
}

// Register issues a new session ID for the user, displacing any previous one.
func (r *Registry) Register(userID uuid.UUID) uuid.UUID {
	sid := uuid.New()
	r.mu.Lock()
	r.sessions[userID] = sid
	r.mu.Unlock()
	return sid
}

// Valid reports whether sid is the user's most recently registered session.
func (r *Registry) Valid(userID, sid uuid.UUID) bool {
	r.mu.RLock()
	current, ok := r.sessions[userID]
	r.mu.RUnlock()
	return ok && current == sid
}

// Drop removes the user's active session on logout or account deletion.
func (r *Registry) Drop(userID uuid.UUID) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}
