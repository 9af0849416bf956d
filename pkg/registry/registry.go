// Package registry tracks the sessions protocol adapters have bound.
//
// Session records are ephemeral diagnostics kept in memory only: they
// power log summaries and metrics, never authorization. FTP gives the
// driver no reliable disconnect signal, so records are pruned by idle age
// rather than removed on close.
package registry

import (
	"sync"
	"time"
)

// SessionInfo describes one bound session.
type SessionInfo struct {
	// ConnID is the adapter-assigned connection identifier.
	ConnID string

	// Identity is the identity the client bound with (e.g. "share@domain").
	Identity string

	// BoundAt is when the bind completed.
	BoundAt time.Time

	// LastSeen is when the session last performed an operation.
	LastSeen time.Time
}

// Registry is a thread-safe in-memory record of bound sessions.
//
// Example usage:
//
//	reg := registry.NewRegistry()
//	reg.Register("conn-1", "abc123@example.com", time.Now())
//	reg.Touch("conn-1", time.Now())
//	stale := reg.PruneIdle(time.Now().Add(-30 * time.Minute))
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*SessionInfo // key: connID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*SessionInfo),
	}
}

// Register records that a connection has bound the given identity.
// Re-registering a connection ID replaces its record: a connection that
// logs in again holds exactly one session.
func (r *Registry) Register(connID, identity string, boundAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[connID] = &SessionInfo{
		ConnID:   connID,
		Identity: identity,
		BoundAt:  boundAt,
		LastSeen: boundAt,
	}
}

// Touch marks the session as active at the given time. Touching an
// unknown connection ID is a no-op.
func (r *Registry) Touch(connID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if info, exists := r.sessions[connID]; exists {
		info.LastSeen = at
	}
}

// Remove deletes the session record for the given connection.
// Returns true if a record was removed, false if none existed.
func (r *Registry) Remove(connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[connID]; exists {
		delete(r.sessions, connID)
		return true
	}
	return false
}

// RemoveAll removes every session record and returns how many there were.
func (r *Registry) RemoveAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.sessions)
	r.sessions = make(map[string]*SessionInfo)
	return count
}

// PruneIdle removes sessions whose LastSeen is before cutoff and returns
// how many were removed.
func (r *Registry) PruneIdle(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	pruned := 0
	for connID, info := range r.sessions {
		if info.LastSeen.Before(cutoff) {
			delete(r.sessions, connID)
			pruned++
		}
	}
	return pruned
}

// List returns all session records.
// The returned slice holds copies and is safe to modify.
func (r *Registry) List() []*SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*SessionInfo, 0, len(r.sessions))
	for _, info := range r.sessions {
		copied := *info
		sessions = append(sessions, &copied)
	}
	return sessions
}

// Count returns the number of tracked sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
