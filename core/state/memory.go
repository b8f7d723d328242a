package state

import "sync"

// Memory keeps one value per user in process memory.
// Values are stored and returned by copy, so callers mutate a session by
// reading it, changing the copy and calling Set while holding the user's Locks entry.
type Memory[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewMemory constructs an empty in-memory store.
func NewMemory[T any]() *Memory[T] {
	return &Memory[T]{sessions: make(map[int64]T)}
}

// Get returns the value stored for a user and whether it exists.
func (m *Memory[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.sessions[userID]
	return v, ok
}

// Set replaces the value stored for a user.
func (m *Memory[T]) Set(userID int64, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = v
}

// Clear removes the value for a user. Clearing a missing user is a no-op.
func (m *Memory[T]) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, userID)
}

// Has reports whether a value exists for the user.
func (m *Memory[T]) Has(userID int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[userID]
	return ok
}

// Len returns the number of stored sessions.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
