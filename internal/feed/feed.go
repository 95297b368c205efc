// Package feed provides the small subscription primitives the reactive
// parts of peerscope are built on: broadcast notifiers, current-value
// holders, and lifetimes that collect unsubscribe functions.
//
// Delivery is synchronous on the emitting goroutine. Handlers that need
// the UI loop must hand off themselves (the UI does this by sending a
// message into the Bubble Tea program). Subscribers never receive values
// emitted before they subscribed; value holders are the one exception in
// that Observe replays the current value first.
package feed

import "sync"

// Notifier broadcasts void notifications to its subscribers
type Notifier struct {
	mu   sync.Mutex
	subs map[int]func()
	next int
}

// Subscribe registers fn and returns a cancel function.
// Cancel is safe to call more than once.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.next
	n.next++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Emit notifies every current subscriber
func (n *Notifier) Emit() {
	n.mu.Lock()
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Bool holds a current bool and notifies on change
type Bool struct {
	mu      sync.Mutex
	current bool
	subs    map[int]func(bool)
	next    int
}

// Get returns the current value
func (b *Bool) Get() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Set replaces the value, notifying subscribers only when it changed
func (b *Bool) Set(v bool) {
	b.mu.Lock()
	if b.current == v {
		b.mu.Unlock()
		return
	}
	b.current = v
	fns := make([]func(bool), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Observe replays the current value to fn, then delivers changes.
// Returns a cancel function.
func (b *Bool) Observe(fn func(bool)) func() {
	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]func(bool))
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	current := b.current
	b.mu.Unlock()
	fn(current)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// String holds a current string and notifies on change
type String struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(string)
	next    int
}

// NewString creates a String seeded with v
func NewString(v string) *String {
	return &String{current: v}
}

// Get returns the current value
func (s *String) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Set replaces the value, notifying subscribers only when it changed
func (s *String) Set(v string) {
	s.mu.Lock()
	if s.current == v {
		s.mu.Unlock()
		return
	}
	s.current = v
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(v)
	}
}

// Observe replays the current value to fn, then delivers changes.
// Returns a cancel function.
func (s *String) Observe(fn func(string)) func() {
	s.mu.Lock()
	if s.subs == nil {
		s.subs = make(map[int]func(string))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	current := s.current
	s.mu.Unlock()
	fn(current)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// OnChange delivers changes only, without the initial replay
func (s *String) OnChange(fn func(string)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]func(string))
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
