package routing

import (
	"errors"
	"fmt"
	"log"
	"time"

	"peerscope/internal/data"
	"peerscope/internal/domain"
	"peerscope/internal/downloads"
	"peerscope/internal/feed"
	"peerscope/internal/search"
)

// ErrContractViolation marks calls that are only possible through a
// caller bug, like producing a search query without a peer-scoped key
var ErrContractViolation = errors.New("routing: contract violation")

// DefaultSearchDelay is how long the controller waits for query
// silence before running a search
const DefaultSearchDelay = 200 * time.Millisecond

// Way selects how the hosting window transitions between sections
type Way int

const (
	WayForward Way = iota
	WayBackward
	WayClearStack
)

// ShowParams describe one navigation transition
type ShowParams struct {
	Way        Way
	Instant    bool
	Background bool
}

// NavigationHost is the window-side surface navigation is forwarded to
type NavigationHost interface {
	ShowSection(m *Memento, params ShowParams)
	ShowBackFromStack(params ShowParams)
	ShowPeerHistory(peer domain.PeerID, params ShowParams, msg domain.MsgID)
}

// MediaSource is a live stream of media windows: one delivery on
// subscribe, then one per change underneath
type MediaSource interface {
	Subscribe(fn func(domain.MediaSlice)) func()
}

// DownloadsSource is a live stream of the sorted export list
type DownloadsSource interface {
	Observe(fn func([]downloads.Entry)) func()
}

// Env ties a controller to its collaborators. Invoke must defer its
// task to the next tick of the loop that owns the controller; the
// migration follow-up relies on never navigating from inside a
// data-change callback.
type Env struct {
	Session     *data.Session
	Downloads   *downloads.Manager
	Host        NavigationHost
	Invoke      func(func())
	SearchDelay time.Duration
}

// Controller holds what one info panel is showing: the routing key,
// the active section, and the search state bound to that section. It
// follows peer migrations by scheduling a backward replacement of the
// current section keyed on the successor peer.
//
// All methods must run on the single loop that owns the panel.
type Controller struct {
	env      Env
	key      Key
	migrated domain.PeerID
	peer     *domain.Peer
	section  Section

	searchField   *search.FieldController
	searchEngine  *search.DelayedController
	searchEnabled feed.Bool

	lifetime       feed.Lifetime
	searchLifetime *feed.Lifetime
	disposed       bool
}

// New builds a controller from a navigation snapshot. A key peer that
// no longer resolves is tolerated: the controller stays up and shows
// nothing for it.
func New(env Env, m *Memento) *Controller {
	if env.SearchDelay == 0 {
		env.SearchDelay = DefaultSearchDelay
	}
	c := &Controller{
		env:            env,
		key:            m.Key,
		migrated:       m.Migrated,
		section:        m.Section,
		searchLifetime: &feed.Lifetime{},
	}
	if peerID := m.Key.Peer(); peerID != 0 {
		p, err := env.Session.Peer(peerID)
		if err != nil {
			log.Printf("routing: key peer %d not resolvable: %v", peerID, err)
		} else {
			c.peer = p
		}
	}
	c.setupMigrationViewer()
	c.updateSearchControllers(m)
	return c
}

// Key returns the routing key, fixed for the controller's lifetime
func (c *Controller) Key() Key {
	return c.key
}

// Section returns the active section
func (c *Controller) Section() Section {
	return c.section
}

// Migrated returns the tracked migration predecessor id
func (c *Controller) Migrated() domain.PeerID {
	return c.migrated
}

// Peer returns the resolved key peer, nil for non-peer keys and for
// peers that vanished from the archive
func (c *Controller) Peer() *domain.Peer {
	return c.peer
}

// SetSection replaces the active section and rebuilds the search state
// for the new section kind. Search resources of the old section are
// released before anything new is built, so no observer sees both.
func (c *Controller) SetSection(m *Memento) {
	c.section = m.Section
	c.updateSearchControllers(m)
}

// updateSearchControllers tears down the previous section's search
// state and builds what the new section needs: a field controller for
// every searchable kind, plus a delayed engine for media sections.
func (c *Controller) updateSearchControllers(m *Memento) {
	c.searchLifetime.Destroy()
	c.searchLifetime = &feed.Lifetime{}
	if c.searchEngine != nil {
		c.searchEngine.Stop()
		c.searchEngine = nil
	}
	c.searchField = nil

	if !c.section.Searchable() {
		c.searchEnabled.Set(false)
		return
	}

	c.searchField = search.NewFieldController(m.SearchFieldText, m.SearchStartsFocused)
	c.searchEnabled.Set(m.SearchEnabledByContent)

	if c.section.Type() != SectionMedia {
		return
	}
	c.searchEngine = search.NewDelayedController(c.resolveQuery, c.env.Invoke, c.env.SearchDelay)

	restored := false
	if st := m.SearchState; st != nil {
		if st.Query.Peer == c.key.Peer() && st.Query.Kind == c.section.MediaType() {
			c.searchEngine.SetQueryFast(st.Query)
			restored = true
		} else {
			// Snapshot from some other section's life; showing it here
			// would be wrong, so start clean.
			log.Printf("routing: dropping saved search for %s/%d (section is %s/%d)",
				st.Query.Kind, st.Query.Peer, c.section, c.key.Peer())
		}
	}
	if !restored {
		if q, err := c.ProduceSearchQuery(m.SearchFieldText); err == nil {
			c.searchEngine.SetQueryFast(q)
		}
	}

	cancel := c.searchField.ObserveQuery(func(text string) {
		q, err := c.ProduceSearchQuery(text)
		if err != nil {
			log.Printf("routing: %v", err)
			return
		}
		c.searchEngine.SetQuery(q)
	})
	c.searchLifetime.Add(cancel)

	refresh := func(kind domain.MediaKind) {
		if kind == domain.MediaNone || kind == c.section.MediaType() {
			c.searchEngine.Refresh()
		}
	}
	c.searchLifetime.Add(c.env.Session.Changes().OnMediaChanged(c.key.Peer(), refresh))
	if c.migrated != 0 {
		c.searchLifetime.Add(c.env.Session.Changes().OnMediaChanged(c.migrated, refresh))
	}
}

// resolveQuery runs one search against the session
func (c *Controller) resolveQuery(q search.Query) ([]domain.MediaItem, error) {
	return c.env.Session.SearchMedia(q.Peer, q.Migrated, q.Kind, q.Text)
}

// ProduceSearchQuery builds the fully-specified query for raw field
// text: the current key's peer, the tracked migration predecessor, and
// the section's media kind. Calling it without a peer-scoped key or on
// a non-searchable section is a contract violation.
func (c *Controller) ProduceSearchQuery(text string) (search.Query, error) {
	peer := c.key.Peer()
	if peer == 0 {
		return search.Query{}, fmt.Errorf("%w: search query for %s key", ErrContractViolation, c.key.Kind())
	}
	if !c.section.Searchable() {
		return search.Query{}, fmt.Errorf("%w: search query for %s section", ErrContractViolation, c.section.Type())
	}
	return search.Query{
		Kind:     c.section.MediaType(),
		Peer:     peer,
		Migrated: c.migrated,
		Text:     text,
	}, nil
}

// SearchField returns the active section's field controller, nil when
// the section has no search
func (c *Controller) SearchField() *search.FieldController {
	return c.searchField
}

// ObserveSearchQuery replays the engine's current resolved query, then
// delivers each later resolution. A no-op cancel is returned when the
// section has no engine.
func (c *Controller) ObserveSearchQuery(fn func(search.Query)) func() {
	if c.searchEngine == nil {
		return func() {}
	}
	return c.searchEngine.ObserveQuery(fn)
}

// SearchEnabledByContent reports whether the content widget declared
// enough content to make search worthwhile
func (c *Controller) SearchEnabledByContent() bool {
	return c.searchEnabled.Get()
}

// SetSearchEnabledByContent records the content widget's verdict
func (c *Controller) SetSearchEnabledByContent(enabled bool) {
	c.searchEnabled.Set(enabled)
}

// ObserveSearchEnabled replays the flag, then delivers changes
func (c *Controller) ObserveSearchEnabled(fn func(bool)) func() {
	return c.searchEnabled.Observe(fn)
}

// MediaSource returns the live media stream for the current section:
// the search engine's results while a query with text is resolved, the
// raw merged timeline otherwise.
func (c *Controller) MediaSource(around domain.FullMsgID, limitBefore, limitAfter int) MediaSource {
	if c.searchEngine != nil && c.searchEngine.CurrentQuery().Text != "" {
		return c.searchEngine.IdsSlice(around, limitBefore, limitAfter)
	}
	key := data.MediaKey{
		Peer:     c.key.Peer(),
		Migrated: c.migrated,
		Kind:     c.section.MediaType(),
	}
	return c.env.Session.MediaStream(key, around, limitBefore, limitAfter)
}

// DownloadsSource returns the live export list stream, sorted
// ascending by start time
func (c *Controller) DownloadsSource() DownloadsSource {
	return c.env.Downloads
}

// SaveSearchState writes the live search state into a memento so a
// later restore resumes where the user left off
func (c *Controller) SaveSearchState(m *Memento) {
	if c.searchField == nil {
		return
	}
	m.SearchFieldText = c.searchField.Query()
	m.SearchEnabledByContent = c.searchEnabled.Get()
	m.SearchStartsFocused = c.searchField.StartsFocused()
	if c.searchEngine != nil {
		m.SearchState = &search.SavedState{Query: c.searchEngine.CurrentQuery()}
	}
}

// ValidateMemento reports whether a snapshot belongs to this
// controller's context; stale snapshots are dropped rather than shown
func (c *Controller) ValidateMemento(m *Memento) bool {
	return m.Key == c.key
}

// setupMigrationViewer watches the key peer for migration updates and
// schedules a backward replacement of the section keyed on the
// successor. The replacement is deferred to the next loop tick: the
// update that triggers it is still being dispatched, and navigation
// must never happen from inside a data-change callback.
func (c *Controller) setupMigrationViewer() {
	if c.peer == nil || (!c.peer.IsGroup() && !c.peer.IsChannel()) {
		return
	}
	cancel := c.env.Session.Changes().OnPeerUpdated(c.peer.ID, domain.FlagMigration,
		func(u domain.PeerUpdate) {
			if u.Peer.MigratedTo == 0 && u.Peer.MigratedFrom == c.migrated {
				return
			}
			peerID := u.Peer.ID
			section := c.section
			c.env.Invoke(func() {
				if c.disposed {
					return
				}
				m := MementoForPeer(c.env.Session, peerID, section)
				c.env.Host.ShowSection(m, ShowParams{
					Way:        WayBackward,
					Instant:    true,
					Background: true,
				})
			})
		})
	c.lifetime.Add(cancel)
}

// ShowSection asks the hosting window for another section
func (c *Controller) ShowSection(m *Memento, params ShowParams) {
	c.env.Host.ShowSection(m, params)
}

// ShowBackFromStack pops the hosting window's section stack
func (c *Controller) ShowBackFromStack(params ShowParams) {
	c.env.Host.ShowBackFromStack(params)
}

// ShowPeerHistory jumps to a message in the main history view
func (c *Controller) ShowPeerHistory(peer domain.PeerID, params ShowParams, msg domain.MsgID) {
	c.env.Host.ShowPeerHistory(peer, params, msg)
}

// Dispose releases every subscription the controller holds. Disposing
// again is a no-op.
func (c *Controller) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	if c.searchEngine != nil {
		c.searchEngine.Stop()
	}
	c.searchLifetime.Destroy()
	c.lifetime.Destroy()
}
