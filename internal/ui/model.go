package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"peerscope/internal/config"
	"peerscope/internal/data"
	"peerscope/internal/domain"
	"peerscope/internal/downloads"
	"peerscope/internal/routing"
	"peerscope/internal/search"
)

// how many media rows are asked for around the anchor
const mediaWindow = 24

// how much history is fetched around a jumped-to message
const historyWindow = 12

// mode is which top-level screen the model shows
type mode int

const (
	modePeers mode = iota
	modeSection
	modeHistory
	modeHelp
)

// Model is the peerscope TUI: a peer list, one routed section per
// peer, and the overlays hanging off them. It is the navigation host
// for routing controllers, so section changes and migration
// follow-ups land back here.
type Model struct {
	sess   *data.Session
	dls    *downloads.Manager
	cfgSvc config.Service
	cfg    *config.Config

	styles *Styles
	width  int
	height int
	mode   mode
	prev   mode // mode to return to when leaving help

	// peer list screen
	peers []*domain.Peer

	// the routed section
	ctrl  *routing.Controller
	stack []*routing.Memento

	// live state of the active section
	cancels     []func()
	cancelMedia func()
	media       domain.MediaSlice
	haveMedia   bool
	members     []domain.Member
	groups      []*domain.Peer
	entries     []downloads.Entry
	poll        *domain.Poll
	pollCtx     *domain.Message

	// history overlay
	history     []domain.Message
	historyPeer domain.PeerID

	searchInput textinput.Model
	searching   bool

	cursor int
	status string

	mu      sync.Mutex
	program *tea.Program
	pending []func()
}

// New creates the UI model on top of a session and downloads manager
func New(sess *data.Session, dls *downloads.Manager, svc config.Service, cfg *config.Config) *Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search"
	ti.CharLimit = 64

	m := &Model{
		sess:        sess,
		dls:         dls,
		cfgSvc:      svc,
		cfg:         cfg,
		styles:      NewStyles(cfg.UI.Accent),
		searchInput: ti,
	}
	m.reloadPeers()
	return m
}

// SetProgram sets the program reference for terminal management and
// deferred task dispatch
func (m *Model) SetProgram(p *tea.Program) {
	m.mu.Lock()
	m.program = p
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, fn := range pending {
		p.Send(InvokeMsg{Fn: fn})
	}
}

// enqueue defers a task to the next turn of the update loop. Without
// a running program (startup, tests) tasks wait for the next Update.
func (m *Model) enqueue(fn func()) {
	m.mu.Lock()
	p := m.program
	if p == nil {
		m.pending = append(m.pending, fn)
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	p.Send(InvokeMsg{Fn: fn})
}

func (m *Model) drainPending() {
	for {
		m.mu.Lock()
		if len(m.pending) == 0 {
			m.mu.Unlock()
			return
		}
		fn := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()
		fn()
	}
}

func (m *Model) env() routing.Env {
	return routing.Env{
		Session:     m.sess,
		Downloads:   m.dls,
		Host:        m,
		Invoke:      m.enqueue,
		SearchDelay: m.cfg.SearchDelay(),
	}
}

func (m *Model) reloadPeers() {
	peers, err := m.sess.Peers()
	if err != nil {
		m.status = fmt.Sprintf("peers: %v", err)
		return
	}
	m.peers = peers
}

// snapshot captures the current section for the back stack
func (m *Model) snapshot() *routing.Memento {
	mem := routing.NewMemento(m.ctrl.Key(), m.ctrl.Section())
	mem.Migrated = m.ctrl.Migrated()
	m.ctrl.SaveSearchState(mem)
	return mem
}

// ShowSection brings a section up. Forward navigation pushes the
// current section on the back stack first.
func (m *Model) ShowSection(mem *routing.Memento, params routing.ShowParams) {
	switch params.Way {
	case routing.WayForward:
		if m.ctrl != nil {
			m.stack = append(m.stack, m.snapshot())
		}
	case routing.WayClearStack:
		m.stack = nil
	}
	m.activate(mem, params)
}

// ShowBackFromStack pops the previous section, or falls back to the
// peer list when there is nothing underneath
func (m *Model) ShowBackFromStack(params routing.ShowParams) {
	if len(m.stack) == 0 {
		m.leaveSections()
		return
	}
	mem := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.activate(mem, params)
}

// ShowPeerHistory jumps into the history view around one message
func (m *Model) ShowPeerHistory(peer domain.PeerID, params routing.ShowParams, msg domain.MsgID) {
	hist, err := m.sess.HistoryAround(peer, msg, historyWindow, historyWindow)
	if err != nil {
		m.status = fmt.Sprintf("history: %v", err)
		return
	}
	m.history = hist
	m.historyPeer = peer
	m.mode = modeHistory
	m.cursor = 0
	for i := range hist {
		if hist[i].ID.Msg == msg {
			m.cursor = i
			break
		}
	}
}

// activate makes mem the live section. A memento for the controller's
// own key only swaps the section; anything else rebuilds the
// controller.
func (m *Model) activate(mem *routing.Memento, params routing.ShowParams) {
	m.teardownSection()
	if m.ctrl != nil && m.ctrl.Key() == mem.Key {
		m.ctrl.SetSection(mem)
	} else {
		if m.ctrl != nil {
			m.ctrl.Dispose()
		}
		m.ctrl = routing.New(m.env(), mem)
	}
	m.mode = modeSection
	if !params.Background {
		m.cursor = 0
		m.searching = false
		m.searchInput.Blur()
	}
	m.searchInput.SetValue(mem.SearchFieldText)
	if mem.SearchStartsFocused {
		m.searching = true
		m.searchInput.Focus()
	}
	m.subscribeSection()
}

// teardownSection releases the live streams and per-section state
func (m *Model) teardownSection() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	if m.cancelMedia != nil {
		m.cancelMedia()
		m.cancelMedia = nil
	}
	m.media = domain.MediaSlice{}
	m.haveMedia = false
	m.members = nil
	m.groups = nil
	m.entries = nil
	m.poll = nil
	m.pollCtx = nil
}

// leaveSections drops the routed state entirely and returns to the
// peer list
func (m *Model) leaveSections() {
	m.teardownSection()
	if m.ctrl != nil {
		m.ctrl.Dispose()
		m.ctrl = nil
	}
	m.stack = nil
	m.mode = modePeers
	m.cursor = 0
	m.searching = false
	m.searchInput.Blur()
	m.searchInput.SetValue("")
	m.reloadPeers()
}

// subscribeSection wires the active section to its data
func (m *Model) subscribeSection() {
	switch m.ctrl.Section().Type() {
	case routing.SectionMedia:
		// The engine replays its resolved query on observe, which
		// triggers the first media subscription; later resolutions
		// re-route between the raw timeline and search results.
		m.cancels = append(m.cancels, m.ctrl.ObserveSearchQuery(func(search.Query) {
			m.resubscribeMedia()
		}))

	case routing.SectionMembers:
		list, err := m.sess.Members(m.ctrl.Key().Peer())
		if err != nil {
			m.status = fmt.Sprintf("members: %v", err)
			return
		}
		m.members = list
		m.ctrl.SetSearchEnabledByContent(len(list) > 0)

	case routing.SectionCommonGroups:
		list, err := m.sess.CommonGroups(m.ctrl.Key().Peer())
		if err != nil {
			m.status = fmt.Sprintf("common groups: %v", err)
			return
		}
		m.groups = list
		m.ctrl.SetSearchEnabledByContent(len(list) > 0)

	case routing.SectionDownloads:
		// Watcher events arrive off the loop, so deliveries go through
		// the deferred-task queue instead of touching the model here.
		cancel := m.ctrl.DownloadsSource().Observe(func(entries []downloads.Entry) {
			m.enqueue(func() {
				m.entries = entries
				m.clampCursor(len(entries))
			})
		})
		m.cancels = append(m.cancels, cancel)

	case routing.SectionPoll:
		pollID, ctx := m.ctrl.Key().Poll()
		p, err := m.sess.Poll(pollID)
		if err != nil {
			m.status = fmt.Sprintf("poll: %v", err)
			return
		}
		m.poll = p
		if msg, err := m.sess.Message(ctx); err == nil {
			m.pollCtx = msg
		}
	}
}

// resubscribeMedia points the media list at the controller's current
// source, anchored at the latest window
func (m *Model) resubscribeMedia() {
	if m.cancelMedia != nil {
		m.cancelMedia()
	}
	src := m.ctrl.MediaSource(domain.FullMsgID{}, mediaWindow, mediaWindow)
	m.cancelMedia = src.Subscribe(func(sl domain.MediaSlice) {
		m.media = sl
		m.haveMedia = true
		m.clampCursor(len(sl.Items))
		m.ctrl.SetSearchEnabledByContent(len(sl.Items) > 0 || sl.SkippedBefore > 0)
	})
}

func (m *Model) clampCursor(n int) {
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) moveCursor(delta, n int) {
	if n == 0 {
		return
	}
	m.cursor += delta
	m.clampCursor(n)
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.drainPending()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case InvokeMsg:
		if msg.Fn != nil {
			msg.Fn()
		}
		return m, nil

	case pagerDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("pager: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.mode == modeHelp {
		m.mode = m.prev
		return m, nil
	}
	if m.searching {
		return m.updateSearch(msg)
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "?":
		m.prev = m.mode
		m.mode = modeHelp
		return m, nil
	}

	switch m.mode {
	case modePeers:
		return m.handlePeersKey(msg)
	case modeSection:
		return m.handleSectionKey(msg)
	case modeHistory:
		return m.handleHistoryKey(msg)
	}
	return m, nil
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if m.cfg.UI.AutosaveOnExit && m.cfgSvc != nil {
		m.cfgSvc.ScheduleSave(m.cfg)
	}
	return m, tea.Quit
}

// updateSearch feeds keys to the query field while it has focus
func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if f := m.ctrl.SearchField(); f != nil && f.Query() != m.searchInput.Value() {
		f.SetQuery(m.searchInput.Value())
		m.cursor = 0
	}
	return m, cmd
}

func (m *Model) handlePeersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		m.moveCursor(1, len(m.peers))
	case "k", "up":
		m.moveCursor(-1, len(m.peers))
	case "enter":
		if m.cursor < len(m.peers) {
			p := m.peers[m.cursor]
			mem := routing.NewMemento(routing.PeerKey(p.ID), routing.NewSection(routing.SectionProfile))
			m.ShowSection(mem, routing.ShowParams{Way: routing.WayClearStack})
		}
	case "d":
		m.showDownloads()
	case "S":
		m.showSettings()
	}
	return m, nil
}

func (m *Model) handleSectionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b", "backspace":
		m.ctrl.ShowBackFromStack(routing.ShowParams{Way: routing.WayBackward})
	case "tab":
		m.cycleSection(1)
	case "shift+tab":
		m.cycleSection(-1)
	case "/":
		if m.ctrl.SearchField() != nil {
			m.searching = true
			m.searchInput.Focus()
			return m, textinput.Blink
		}
		m.status = "this section has no search"
	case "j", "down":
		m.moveCursor(1, m.listLen())
	case "k", "up":
		m.moveCursor(-1, m.listLen())
	case "enter":
		m.openSelected()
	case "s":
		m.startDownload()
	case "x":
		m.deleteSelected()
	case "M":
		m.migrateCurrent()
	case "d":
		if !m.ctrl.Key().IsDownloads() {
			m.showDownloads()
		}
	case "S":
		if m.ctrl.Key().Kind() != routing.KeySettings {
			m.showSettings()
		}
	case "+", "=":
		m.adjustSearchDelay(50)
	case "-":
		m.adjustSearchDelay(-50)
	}
	return m, nil
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "b", "backspace":
		m.mode = modeSection
		m.cursor = 0
	case "j", "down":
		m.moveCursor(1, len(m.history))
	case "k", "up":
		m.moveCursor(-1, len(m.history))
	case "enter":
		if m.cursor < len(m.history) {
			sel := m.history[m.cursor]
			if sel.PollID != 0 {
				mem := routing.NewMemento(routing.PollKey(sel.PollID, sel.ID), routing.NewSection(routing.SectionPoll))
				m.ShowSection(mem, routing.ShowParams{Way: routing.WayForward})
			}
		}
	case "o":
		return m, m.historyPagerCmd()
	}
	return m, nil
}

func (m *Model) showDownloads() {
	mem := routing.NewMemento(routing.DownloadsKey(), routing.NewSection(routing.SectionDownloads))
	m.ShowSection(mem, routing.ShowParams{Way: routing.WayForward})
}

func (m *Model) showSettings() {
	mem := routing.NewMemento(routing.SettingsKey(m.sess.Self()), routing.NewSection(routing.SectionSettings))
	m.ShowSection(mem, routing.ShowParams{Way: routing.WayForward})
}

// cycleSection steps through the sections available for the current
// peer key
func (m *Model) cycleSection(dir int) {
	if m.ctrl.Key().Peer() == 0 {
		return
	}
	secs := sectionsFor(m.ctrl.Peer())
	cur := 0
	for i, s := range secs {
		if s == m.ctrl.Section() {
			cur = i
			break
		}
	}
	next := secs[(cur+dir+len(secs))%len(secs)]
	m.ShowSection(routing.NewMemento(m.ctrl.Key(), next), routing.ShowParams{Way: routing.WayForward})
}

// sectionsFor lists the tabs a peer key can show: profile, one tab
// per media kind, then members or common groups by peer flavor
func sectionsFor(p *domain.Peer) []routing.Section {
	secs := []routing.Section{routing.NewSection(routing.SectionProfile)}
	if p == nil {
		return secs
	}
	for _, k := range []domain.MediaKind{
		domain.MediaPhoto, domain.MediaVideo, domain.MediaFile,
		domain.MediaMusic, domain.MediaVoice, domain.MediaLink, domain.MediaRound,
	} {
		secs = append(secs, routing.MediaSection(k))
	}
	if p.IsGroup() || p.IsChannel() {
		secs = append(secs, routing.NewSection(routing.SectionMembers))
	} else {
		secs = append(secs, routing.NewSection(routing.SectionCommonGroups))
	}
	return secs
}

// listLen is how many rows the active section's list has
func (m *Model) listLen() int {
	switch m.ctrl.Section().Type() {
	case routing.SectionMedia:
		return len(m.media.Items)
	case routing.SectionMembers:
		return len(m.filteredMembers())
	case routing.SectionCommonGroups:
		return len(m.filteredGroups())
	case routing.SectionDownloads:
		return len(m.entries)
	}
	return 0
}

func (m *Model) fieldText() string {
	if m.ctrl == nil {
		return ""
	}
	if f := m.ctrl.SearchField(); f != nil {
		return f.Query()
	}
	return ""
}

// filteredMembers applies the field text as a client-side filter
func (m *Model) filteredMembers() []domain.Member {
	text := m.fieldText()
	if text == "" {
		return m.members
	}
	needle := strings.ToLower(text)
	var out []domain.Member
	for _, mb := range m.members {
		if strings.Contains(strings.ToLower(mb.Name), needle) ||
			strings.Contains(strings.ToLower(mb.Role), needle) {
			out = append(out, mb)
		}
	}
	return out
}

// filteredGroups applies the field text as a client-side filter
func (m *Model) filteredGroups() []*domain.Peer {
	text := m.fieldText()
	if text == "" {
		return m.groups
	}
	needle := strings.ToLower(text)
	var out []*domain.Peer
	for _, g := range m.groups {
		if strings.Contains(strings.ToLower(g.Name), needle) ||
			strings.Contains(strings.ToLower(g.Username), needle) {
			out = append(out, g)
		}
	}
	return out
}

// openSelected acts on the highlighted row: a media item jumps to
// history, a common group opens its profile
func (m *Model) openSelected() {
	switch m.ctrl.Section().Type() {
	case routing.SectionMedia:
		if m.cursor < len(m.media.Items) {
			it := m.media.Items[m.cursor]
			m.ctrl.ShowPeerHistory(it.ID.Peer, routing.ShowParams{Way: routing.WayForward}, it.ID.Msg)
		}
	case routing.SectionCommonGroups:
		groups := m.filteredGroups()
		if m.cursor < len(groups) {
			g := groups[m.cursor]
			mem := routing.NewMemento(routing.PeerKey(g.ID), routing.NewSection(routing.SectionProfile))
			m.ctrl.ShowSection(mem, routing.ShowParams{Way: routing.WayForward})
		}
	}
}

// startDownload exports the highlighted media item's payload
func (m *Model) startDownload() {
	if m.ctrl.Section().Type() != routing.SectionMedia || m.cursor >= len(m.media.Items) {
		return
	}
	it := m.media.Items[m.cursor]
	entry, err := m.dls.Start(it.ID)
	if err != nil {
		m.status = fmt.Sprintf("download: %v", err)
		return
	}
	m.status = fmt.Sprintf("saved %s", entry.Path)
}

// deleteSelected removes the highlighted media message from the
// archive; the live stream refreshes the list underneath us
func (m *Model) deleteSelected() {
	if m.ctrl.Section().Type() != routing.SectionMedia || m.cursor >= len(m.media.Items) {
		return
	}
	it := m.media.Items[m.cursor]
	if err := m.sess.DeleteMessage(it.ID); err != nil {
		m.status = fmt.Sprintf("delete: %v", err)
		return
	}
	m.status = fmt.Sprintf("deleted message %d", it.ID.Msg)
}

// migrateCurrent upgrades the viewed group to its successor channel,
// matched by name. The migration viewer picks up the change and
// replaces this section with one keyed on the channel.
func (m *Model) migrateCurrent() {
	p := m.ctrl.Peer()
	if p == nil || !p.IsGroup() || p.MigratedTo != 0 {
		m.status = "migration: nothing to do here"
		return
	}
	peers, err := m.sess.Peers()
	if err != nil {
		m.status = fmt.Sprintf("migration: %v", err)
		return
	}
	for _, cand := range peers {
		if cand.IsChannel() && cand.MigratedFrom == 0 && cand.Name == p.Name {
			if err := m.sess.ApplyMigration(p.ID, cand.ID); err != nil {
				m.status = fmt.Sprintf("migration: %v", err)
				return
			}
			m.status = fmt.Sprintf("migrated %q to channel %d", p.Name, cand.ID)
			return
		}
	}
	m.status = "migration: no successor channel in the archive"
}

// adjustSearchDelay tweaks the debounce from the settings view and
// schedules a config write
func (m *Model) adjustSearchDelay(deltaMs int) {
	if m.ctrl.Section().Type() != routing.SectionSettings {
		return
	}
	ms := m.cfg.SearchDelayMs + deltaMs
	if ms < 50 {
		ms = 50
	}
	m.cfg.SearchDelayMs = ms
	if m.cfgSvc != nil {
		m.cfgSvc.ScheduleSave(m.cfg)
	}
	m.status = fmt.Sprintf("search delay %dms", ms)
}
