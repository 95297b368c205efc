package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"
)

// pagerDoneMsg reports the pager handing the terminal back
type pagerDoneMsg struct {
	err error
}

// HistoryOps shows long history content in the ov pager
type HistoryOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHistoryOps creates a new history operations instance
func NewHistoryOps(program *tea.Program) *HistoryOps {
	return &HistoryOps{program: program}
}

// ShowInPager shows content using the ov pager
func (h *HistoryOps) ShowInPager(content string) error {
	if h.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(content))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// historyPagerCmd opens the fetched history in the ov pager
func (m *Model) historyPagerCmd() tea.Cmd {
	m.mu.Lock()
	p := m.program
	m.mu.Unlock()
	if p == nil {
		m.status = "pager needs a running program"
		return nil
	}
	content := m.historyPagerContent()
	ops := NewHistoryOps(p)
	return func() tea.Msg {
		return pagerDoneMsg{err: ops.ShowInPager(content)}
	}
}

// historyPagerContent renders the history overlay as plain text
func (m *Model) historyPagerContent() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.sess.DisplayName(m.historyPeer))
	for _, h := range m.history {
		text := h.Text
		if h.File != "" {
			text = fmt.Sprintf("%s [%s %s]", h.Text, h.Media, h.File)
		}
		fmt.Fprintf(&b, "%6d  %s  %s: %s\n",
			h.ID.Msg, h.Date.Format("2006-01-02 15:04"), m.sess.DisplayName(h.From), text)
	}
	return b.String()
}
