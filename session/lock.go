package session

import "sync"

// Locks holds at most one in-flight analysis per song key. TryAcquire never
// blocks: a caller that loses the race reports "in progress" instead of queuing.
type Locks struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocks() *Locks {
	return &Locks{held: make(map[string]bool)}
}

// TryAcquire takes the lock for key and reports whether it succeeded.
func (l *Locks) TryAcquire(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return false
	}
	l.held[key] = true
	return true
}

// Release frees key. Releasing a key that is not held is a no-op.
func (l *Locks) Release(key string) {
	l.mu.Lock()
	delete(l.held, key)
	l.mu.Unlock()
}

// Held reports whether an analysis for key is running.
func (l *Locks) Held(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[key]
}
