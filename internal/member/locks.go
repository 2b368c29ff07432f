package member

import "sync"

// Locks serializes read-modify-write cycles on one member record. Writers
// of the same member share a Locks value so no write is lost to a stale
// read.
type Locks struct {
	mu   sync.Mutex
	byID map[string]*memberLock
}

type memberLock struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{byID: make(map[string]*memberLock)}
}

// Lock blocks until no one else holds id and returns the matching unlock.
func (l *Locks) Lock(id string) (unlock func()) {
	l.mu.Lock()
	ml, ok := l.byID[id]
	if !ok {
		ml = &memberLock{}
		l.byID[id] = ml
	}
	ml.refs++
	l.mu.Unlock()

	ml.mu.Lock()
	return func() {
		ml.mu.Unlock()

		l.mu.Lock()
		ml.refs--
		if ml.refs == 0 {
			delete(l.byID, id)
		}
		l.mu.Unlock()
	}
}
