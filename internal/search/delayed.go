package search

import (
	"log"
	"sync"
	"time"

	"peerscope/internal/domain"
	"peerscope/internal/feed"
)

// Resolver executes one query and returns matching items in merged
// timeline order
type Resolver func(Query) ([]domain.MediaItem, error)

// DelayedController debounces query changes, resolves them, and
// publishes result windows. Resolution runs through invoke so results
// land on the loop that owns the section.
type DelayedController struct {
	resolve Resolver
	invoke  func(func())
	delay   time.Duration

	mu         sync.Mutex
	timer      *time.Timer
	pending    Query
	hasPending bool
	current    Query
	resolved   bool
	items      []domain.MediaItem

	changed feed.Notifier
}

// NewDelayedController creates a controller resolving through resolve
// after delay of query silence. A nil invoke runs resolution inline.
func NewDelayedController(resolve Resolver, invoke func(func()), delay time.Duration) *DelayedController {
	if invoke == nil {
		invoke = func(fn func()) { fn() }
	}
	return &DelayedController{resolve: resolve, invoke: invoke, delay: delay}
}

// SetQuery schedules q to run after the debounce delay. Setting the
// query already resolved cancels any pending run instead. Clearing
// the text skips the delay, so leaving a search snaps back at once.
func (d *DelayedController) SetQuery(q Query) {
	d.mu.Lock()
	if d.resolved && q == d.current {
		d.stopTimerLocked()
		d.hasPending = false
		d.mu.Unlock()
		return
	}
	d.pending = q
	d.hasPending = true
	d.stopTimerLocked()
	if d.delay <= 0 || q.Text == "" {
		d.mu.Unlock()
		d.flush()
		return
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.invoke(d.flush)
	})
	d.mu.Unlock()
}

// SetQueryFast resolves q immediately, skipping the debounce
func (d *DelayedController) SetQueryFast(q Query) {
	d.mu.Lock()
	d.pending = q
	d.hasPending = true
	d.stopTimerLocked()
	d.mu.Unlock()
	d.flush()
}

// CurrentQuery returns the last resolved query
func (d *DelayedController) CurrentQuery() Query {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// ObserveQuery replays the current resolved query, then delivers each
// later resolution. Returns a cancel function.
func (d *DelayedController) ObserveQuery(fn func(Query)) func() {
	fn(d.CurrentQuery())
	return d.changed.Subscribe(func() { fn(d.CurrentQuery()) })
}

// Refresh re-runs the current query, for when the underlying data
// changed beneath unchanged search terms
func (d *DelayedController) Refresh() {
	d.mu.Lock()
	if !d.resolved {
		d.mu.Unlock()
		return
	}
	q := d.current
	d.mu.Unlock()
	d.run(q)
}

// Stop cancels any pending resolution
func (d *DelayedController) Stop() {
	d.mu.Lock()
	d.stopTimerLocked()
	d.hasPending = false
	d.mu.Unlock()
}

func (d *DelayedController) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// flush resolves the pending query, if one is still waiting
func (d *DelayedController) flush() {
	d.mu.Lock()
	if !d.hasPending {
		d.mu.Unlock()
		return
	}
	q := d.pending
	d.hasPending = false
	d.timer = nil
	d.mu.Unlock()
	d.run(q)
}

func (d *DelayedController) run(q Query) {
	items, err := d.resolve(q)
	if err != nil {
		log.Printf("search: query %q failed: %v", q.Text, err)
		items = nil
	}
	d.mu.Lock()
	d.current = q
	d.resolved = true
	d.items = items
	d.mu.Unlock()
	d.changed.Emit()
}

// ResultStream emits windows over the controller's current results
type ResultStream struct {
	d      *DelayedController
	around domain.FullMsgID
	before int
	after  int
}

// IdsSlice returns a stream of result windows around an anchor
func (d *DelayedController) IdsSlice(around domain.FullMsgID, limitBefore, limitAfter int) *ResultStream {
	return &ResultStream{d: d, around: around, before: limitBefore, after: limitAfter}
}

// Subscribe delivers the current window, then again after every
// resolution. Returns a cancel function.
func (r *ResultStream) Subscribe(fn func(domain.MediaSlice)) func() {
	emit := func() {
		r.d.mu.Lock()
		items := r.d.items
		migrated := r.d.current.Migrated
		r.d.mu.Unlock()
		fn(domain.SliceAround(items, migrated, r.around, r.before, r.after))
	}
	emit()
	return r.d.changed.Subscribe(emit)
}
