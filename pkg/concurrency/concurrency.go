package concurrency

import "sync"

// LockMap hands out one mutex per key so unrelated keys never
// serialize each other.
type LockMap struct {
	mux   sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for key and returns its unlock:
//
//	defer locks.Lock(key)()
func (m *LockMap) Lock(key string) func() {
	m.mux.Lock()
	if m.locks == nil {
		m.locks = make(map[string]*sync.Mutex)
	}
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mux.Unlock()

	l.Lock()
	return l.Unlock
}
