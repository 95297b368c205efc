package feed

import "sync"

// Lifetime collects cancel functions and releases them together.
// Functions added after Destroy run immediately, so a late subscription
// on a dead lifetime cannot leak.
type Lifetime struct {
	mu   sync.Mutex
	fns  []func()
	dead bool
}

// Add registers a cancel function with the lifetime
func (l *Lifetime) Add(fn func()) {
	l.mu.Lock()
	if l.dead {
		l.mu.Unlock()
		fn()
		return
	}
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

// Destroy runs every registered cancel function, most recent first.
// Calling Destroy again is a no-op: each function runs exactly once.
func (l *Lifetime) Destroy() {
	l.mu.Lock()
	if l.dead {
		l.mu.Unlock()
		return
	}
	l.dead = true
	fns := l.fns
	l.fns = nil
	l.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Alive reports whether Destroy has not run yet
func (l *Lifetime) Alive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.dead
}
