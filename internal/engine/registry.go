package engine

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks live session machines in-process. A user holds at most
// one live session at a time; finished sessions are removed once their
// result hand-off is confirmed.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Machine
	byUser map[int]uuid.UUID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uuid.UUID]*Machine),
		byUser: make(map[int]uuid.UUID),
	}
}

// Add registers a machine. Returns ErrSessionConflict when the user
// already has a live session.
func (r *Registry) Add(m *Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUser[m.UserID()]; ok {
		return ErrSessionConflict
	}
	r.byID[m.ID()] = m
	r.byUser[m.UserID()] = m.ID()
	return nil
}

// Get returns the machine for a session id.
func (r *Registry) Get(sessionID uuid.UUID) (*Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[sessionID]
	return m, ok
}

// ForUser returns the user's live machine, if any.
func (r *Registry) ForUser(userID int) (*Machine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUser[userID]
	if !ok {
		return nil, false
	}
	m, ok := r.byID[id]
	return m, ok
}

// Remove drops a machine from the registry.
func (r *Registry) Remove(sessionID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	if cur, ok := r.byUser[m.UserID()]; ok && cur == sessionID {
		delete(r.byUser, m.UserID())
	}
}

// Snapshot returns the live machines for sweeping.
func (r *Registry) Snapshot() []*Machine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Machine, 0, len(r.byID))
	for _, m := range r.byID {
		out = append(out, m)
	}
	return out
}

// Len returns the number of live machines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
