package wallet

import "sync"

// userLocks serializes wallet operations per user id so two concurrent
// launches cannot both read a stale last-active agent and run conflicting
// swaps. Scoped to one process; entries are never reaped, which is fine for
// the player counts this runs at.
type userLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *userLocks) lock(userID uint) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
