package state

import "sync"

// Locks hands out one mutex per user so a conversation step runs start to
// finish before the next update of the same user is looked at. Entries are
// dropped once nobody holds or waits for them.
type Locks struct {
	mu   sync.Mutex
	held map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocks constructs an empty lock table.
func NewLocks() *Locks {
	return &Locks{held: make(map[int64]*userLock)}
}

// Lock blocks until the user's lock is free and returns the function that releases it.
func (l *Locks) Lock(userID int64) (unlock func()) {
	l.mu.Lock()
	ul, ok := l.held[userID]
	if !ok {
		ul = &userLock{}
		l.held[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.held, userID)
		}
		l.mu.Unlock()
	}
}

// Len returns the number of users with a held or awaited lock.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
