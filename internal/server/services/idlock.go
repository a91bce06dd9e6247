package services

import "sync"

// idLock provides a mutual-exclusion scope per transfer id. A download and
// the sweeper contend for the same record's transition; operations on
// different ids proceed without contention. Entries are reference-counted
// so the map does not grow with the number of transfers ever seen.
type idLock struct {
	mu    sync.Mutex
	locks map[string]*idLockEntry
}

type idLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newIDLock() *idLock {
	return &idLock{locks: make(map[string]*idLockEntry)}
}

// acquire blocks until the per-id lock is held and returns the release
// function. The release function must be called exactly once.
func (l *idLock) acquire(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &idLockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.locks, id)
			}
			l.mu.Unlock()
		})
	}
}
