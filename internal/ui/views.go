package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"peerscope/internal/domain"
	"peerscope/internal/routing"
)

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	switch m.mode {
	case modePeers:
		b.WriteString(m.renderPeers())
	case modeSection:
		b.WriteString(m.renderSection())
	case modeHistory:
		b.WriteString(m.renderHistory())
	case modeHelp:
		b.WriteString(m.renderHelp())
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.styles.Title.Render("peerscope")
	switch m.mode {
	case modePeers:
		return title + m.styles.Dim.Render("  archive viewer")
	case modeHistory:
		return title + "  " + m.sess.DisplayName(m.historyPeer) + m.styles.Dim.Render("  history")
	case modeHelp:
		return title + m.styles.Dim.Render("  help")
	}
	return title + "  " + m.renderContext()
}

// renderContext names what the section is keyed on, plus the tab bar
// for peer keys
func (m *Model) renderContext() string {
	key := m.ctrl.Key()
	switch key.Kind() {
	case routing.KeyPeer:
		name := m.sess.DisplayName(key.Peer())
		style := m.styles.User
		if p := m.ctrl.Peer(); p != nil {
			style = m.styles.PeerStyle(p.Kind)
		}
		return style.Render(name) + "\n" + m.renderTabs()
	case routing.KeyDownloads:
		return m.styles.Accent.Render("downloads")
	case routing.KeySettings:
		return m.styles.Accent.Render("settings")
	case routing.KeyPoll:
		return m.styles.Accent.Render("poll")
	}
	return ""
}

func (m *Model) renderTabs() string {
	secs := sectionsFor(m.ctrl.Peer())
	parts := make([]string, 0, len(secs))
	for _, s := range secs {
		if s == m.ctrl.Section() {
			parts = append(parts, m.styles.ActiveTab.Render(s.String()))
		} else {
			parts = append(parts, m.styles.Tab.Render(s.String()))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderSection() string {
	switch m.ctrl.Section().Type() {
	case routing.SectionProfile:
		return m.renderProfile()
	case routing.SectionMedia:
		return m.renderMedia()
	case routing.SectionMembers:
		return m.renderMembers()
	case routing.SectionCommonGroups:
		return m.renderCommonGroups()
	case routing.SectionDownloads:
		return m.renderDownloads()
	case routing.SectionSettings:
		return m.renderSettings()
	case routing.SectionPoll:
		return m.renderPoll()
	}
	return ""
}

func (m *Model) renderPeers() string {
	if len(m.peers) == 0 {
		return m.styles.Dim.Render("the archive has no peers")
	}
	rows := make([]string, 0, len(m.peers))
	for i, p := range m.peers {
		name := m.styles.PeerStyle(p.Kind).Render(p.Name)
		line := fmt.Sprintf("%s  %s", name, m.styles.Dim.Render(p.Kind.String()))
		if p.Username != "" {
			line += m.styles.Dim.Render("  @" + p.Username)
		}
		rows = append(rows, m.cursorLine(i, line))
	}
	return strings.Join(m.window(rows), "\n")
}

func (m *Model) renderProfile() string {
	p := m.ctrl.Peer()
	if p == nil {
		return m.styles.Dim.Render("this peer is gone from the archive")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.styles.Title.Render(p.Name))
	if p.Username != "" {
		fmt.Fprintf(&b, "@%s\n", p.Username)
	}
	if p.MemberCount > 0 {
		fmt.Fprintf(&b, "%s, %d members\n", p.Kind, p.MemberCount)
	} else {
		fmt.Fprintf(&b, "%s\n", p.Kind)
	}
	if p.About != "" {
		fmt.Fprintf(&b, "\n%s\n", p.About)
	}
	switch {
	case p.MigratedTo != 0:
		fmt.Fprintf(&b, "\n%s\n", m.styles.Accent.Render(
			fmt.Sprintf("migrated to %s", m.sess.DisplayName(p.MigratedTo))))
	case p.MigratedFrom != 0:
		fmt.Fprintf(&b, "\n%s\n", m.styles.Dim.Render(
			fmt.Sprintf("continues %s", m.sess.DisplayName(p.MigratedFrom))))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderMedia() string {
	if !m.haveMedia {
		return m.styles.Dim.Render("loading media...")
	}
	var b strings.Builder
	if m.media.SkippedBefore > 0 {
		b.WriteString(m.styles.Dim.Render(fmt.Sprintf("... %d earlier", m.media.SkippedBefore)))
		b.WriteString("\n")
	}
	if len(m.media.Items) == 0 {
		if m.fieldText() != "" {
			b.WriteString(m.styles.Dim.Render("no matches"))
		} else {
			b.WriteString(m.styles.Dim.Render("nothing here"))
		}
		return b.String()
	}
	rows := make([]string, 0, len(m.media.Items))
	for i, it := range m.media.Items {
		line := fmt.Sprintf("%s  %-6s  %s", it.Date.Format("2006-01-02"), it.Kind, mediaLabel(it))
		if it.Size > 0 {
			line += fmt.Sprintf("  (%s)", humanSize(it.Size))
		}
		rows = append(rows, m.cursorLine(i, line))
	}
	b.WriteString(strings.Join(m.window(rows), "\n"))
	if m.media.SkippedAfter > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Dim.Render(fmt.Sprintf("... %d later", m.media.SkippedAfter)))
	}
	return b.String()
}

// mediaLabel is the row text for one media item
func mediaLabel(it domain.MediaItem) string {
	if it.File != "" {
		return it.File
	}
	if it.Caption != "" {
		return it.Caption
	}
	return "(untitled)"
}

func (m *Model) renderMembers() string {
	members := m.filteredMembers()
	if len(members) == 0 {
		if m.fieldText() != "" {
			return m.styles.Dim.Render("no members match")
		}
		return m.styles.Dim.Render("no member list for this peer")
	}
	rows := make([]string, 0, len(members))
	for i, mb := range members {
		line := fmt.Sprintf("%-24s  %-8s  joined %s", mb.Name, mb.Role, mb.Joined.Format("2006-01-02"))
		rows = append(rows, m.cursorLine(i, line))
	}
	return strings.Join(m.window(rows), "\n")
}

func (m *Model) renderCommonGroups() string {
	groups := m.filteredGroups()
	if len(groups) == 0 {
		if m.fieldText() != "" {
			return m.styles.Dim.Render("no groups match")
		}
		return m.styles.Dim.Render("no groups in common")
	}
	rows := make([]string, 0, len(groups))
	for i, g := range groups {
		name := m.styles.PeerStyle(g.Kind).Render(g.Name)
		line := fmt.Sprintf("%s  %s", name,
			m.styles.Dim.Render(fmt.Sprintf("%s, %d members", g.Kind, g.MemberCount)))
		rows = append(rows, m.cursorLine(i, line))
	}
	return strings.Join(m.window(rows), "\n")
}

func (m *Model) renderDownloads() string {
	if len(m.entries) == 0 {
		return m.styles.Dim.Render("nothing exported yet; press s on a media item")
	}
	rows := make([]string, 0, len(m.entries))
	for i, e := range m.entries {
		line := fmt.Sprintf("%-28s  %-10s  %s", e.Name, humanSize(e.Size),
			e.Started.Format("15:04:05"))
		rows = append(rows, m.cursorLine(i, line))
	}
	return strings.Join(m.window(rows), "\n")
}

func (m *Model) renderSettings() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.styles.Title.Render("settings"))
	fmt.Fprintf(&b, "user          %s\n", m.sess.DisplayName(m.ctrl.Key().SettingsUser()))
	fmt.Fprintf(&b, "archive       %s\n", m.cfg.ArchiveDir)
	fmt.Fprintf(&b, "downloads     %s\n", m.dls.Dir())
	fmt.Fprintf(&b, "search delay  %dms  %s\n", m.cfg.SearchDelayMs, m.styles.Dim.Render("(+/- to adjust)"))
	fmt.Fprintf(&b, "accent        %s\n", m.styles.Accent.Render(m.cfg.UI.Accent))
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderPoll() string {
	if m.poll == nil {
		return m.styles.Dim.Render("poll not found")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.styles.Title.Render(m.poll.Question))
	total := m.poll.TotalVotes()
	for _, a := range m.poll.Answers {
		bar := ""
		if total > 0 {
			bar = strings.Repeat("#", a.Votes*20/total)
		}
		fmt.Fprintf(&b, "%-20s %4d  %s\n", a.Text, a.Votes, m.styles.Bar.Render(bar))
	}
	fmt.Fprintf(&b, "\n%s", m.styles.Dim.Render(fmt.Sprintf("%d votes", total)))
	if m.pollCtx != nil {
		fmt.Fprintf(&b, "%s", m.styles.Dim.Render(
			fmt.Sprintf("  (from message %d)", m.pollCtx.ID.Msg)))
	}
	return b.String()
}

func (m *Model) renderHistory() string {
	if len(m.history) == 0 {
		return m.styles.Dim.Render("no messages around here")
	}
	rows := make([]string, 0, len(m.history))
	for i, h := range m.history {
		text := h.Text
		if h.File != "" {
			text = fmt.Sprintf("%s [%s]", text, h.File)
		}
		if h.PollID != 0 {
			text += "  " + m.styles.Accent.Render("[poll]")
		}
		line := fmt.Sprintf("%4d  %s  %s: %s",
			h.ID.Msg, h.Date.Format("01-02 15:04"), m.sess.DisplayName(h.From), text)
		rows = append(rows, m.cursorLine(i, line))
	}
	return strings.Join(m.window(rows), "\n")
}

func (m *Model) renderHelp() string {
	key := m.styles.Search
	desc := lipgloss.NewStyle()
	var b strings.Builder
	row := func(k, d string) {
		fmt.Fprintf(&b, "  %s  %s\n", key.Render(fmt.Sprintf("%-10s", k)), desc.Render(d))
	}
	b.WriteString(m.styles.Title.Render("Keys") + "\n")
	row("j/k", "move")
	row("enter", "open: peer, message history, group profile, poll")
	row("tab", "next section")
	row("shift+tab", "previous section")
	row("/", "search in section")
	row("s", "save media item to downloads")
	row("x", "delete message from archive")
	row("M", "migrate viewed group to its channel")
	row("d", "downloads")
	row("S", "settings")
	row("o", "open history in pager")
	row("b/esc", "back")
	row("q", "quit")
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderFooter() string {
	var parts []string
	if m.searching {
		parts = append(parts, m.searchInput.View())
	} else if t := m.fieldText(); t != "" {
		parts = append(parts, m.styles.Search.Render("/"+t))
	}
	if m.status != "" {
		parts = append(parts, m.styles.Status.Render(m.status))
	}
	parts = append(parts, m.styles.Help.Render(m.hintLine()))
	return strings.Join(parts, "\n")
}

func (m *Model) hintLine() string {
	switch m.mode {
	case modePeers:
		return "enter open  d downloads  S settings  ? help  q quit"
	case modeSection:
		return "tab sections  / search  enter open  s save  x delete  b back  ? help"
	case modeHistory:
		return "enter open poll  o pager  b back"
	}
	return "any key to return"
}

func (m *Model) cursorLine(i int, line string) string {
	if i == m.cursor {
		return m.styles.Selected.Render("> " + line)
	}
	return "  " + line
}

// window trims rows to the terminal height, keeping the cursor visible
func (m *Model) window(rows []string) []string {
	limit := m.height - 8
	if limit < 5 {
		limit = 5
	}
	if len(rows) <= limit {
		return rows
	}
	start := m.cursor - limit/2
	if start < 0 {
		start = 0
	}
	if start+limit > len(rows) {
		start = len(rows) - limit
	}
	return rows[start : start+limit]
}

// humanSize formats a byte count for list rows
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
