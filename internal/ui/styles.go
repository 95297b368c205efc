package ui

import (
	"github.com/charmbracelet/lipgloss"

	"peerscope/internal/domain"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title     lipgloss.Style
	Accent    lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Dim       lipgloss.Style
	Status    lipgloss.Style
	Selected  lipgloss.Style
	User      lipgloss.Style
	Group     lipgloss.Style
	Channel   lipgloss.Style
	Search    lipgloss.Style
	Bar       lipgloss.Style
	Help      lipgloss.Style
}

// NewStyles creates a new Styles instance around one accent color
func NewStyles(accent string) *Styles {
	if accent == "" {
		accent = "62"
	}
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Accent:    lipgloss.NewStyle().Foreground(lipgloss.Color(accent)),
		Tab:       lipgloss.NewStyle().Faint(true),
		ActiveTab: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accent)),
		Dim:       lipgloss.NewStyle().Faint(true),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Selected:  lipgloss.NewStyle().Background(lipgloss.Color("238")),
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("51")),
		Group:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Channel:   lipgloss.NewStyle().Foreground(lipgloss.Color("213")),
		Search:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Bar:       lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Help:      lipgloss.NewStyle().Faint(true),
	}
}

// PeerStyle picks the color style for a peer kind
func (s *Styles) PeerStyle(kind domain.PeerKind) lipgloss.Style {
	switch kind {
	case domain.PeerGroup:
		return s.Group
	case domain.PeerChannel:
		return s.Channel
	}
	return s.User
}
