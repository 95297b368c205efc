// Package report renders a plain-terminal summary of an archive:
// one row per peer with message and per-kind media counts.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"peerscope/internal/data"
	"peerscope/internal/domain"
)

// countedKinds fixes the column order of the media counts
var countedKinds = []domain.MediaKind{
	domain.MediaPhoto,
	domain.MediaVideo,
	domain.MediaFile,
	domain.MediaMusic,
	domain.MediaVoice,
	domain.MediaLink,
	domain.MediaRound,
}

// Row is one peer's line in the archive summary
type Row struct {
	Peer      *domain.Peer
	Messages  int
	Media     map[domain.MediaKind]int
	Migration string
}

// Build collects a summary row for every peer in the session's archive
func Build(sess *data.Session) ([]Row, error) {
	peers, err := sess.Peers()
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}

	arc := sess.Archive()
	rows := make([]Row, 0, len(peers))
	for _, p := range peers {
		msgs, err := arc.MessageCount(p.ID)
		if err != nil {
			return nil, fmt.Errorf("count messages for %d: %w", p.ID, err)
		}

		media := make(map[domain.MediaKind]int, len(countedKinds))
		for _, kind := range countedKinds {
			n, err := arc.MediaCount(p.ID, 0, kind)
			if err != nil {
				return nil, fmt.Errorf("count %s for %d: %w", kind, p.ID, err)
			}
			if n > 0 {
				media[kind] = n
			}
		}

		rows = append(rows, Row{
			Peer:      p,
			Messages:  msgs,
			Media:     media,
			Migration: migrationNote(sess, p),
		})
	}
	return rows, nil
}

// migrationNote describes the peer's migration link, if any
func migrationNote(sess *data.Session, p *domain.Peer) string {
	switch {
	case p.MigratedTo != 0:
		return "now " + sess.DisplayName(p.MigratedTo)
	case p.MigratedFrom != 0:
		return "was " + sess.DisplayName(p.MigratedFrom)
	}
	return ""
}

// Render writes the summary table to w
func Render(w io.Writer, rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "archive is empty")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	kindColor := map[domain.PeerKind]func(a ...interface{}) string{
		domain.PeerUser:    color.New(color.FgCyan).SprintFunc(),
		domain.PeerGroup:   color.New(color.FgGreen).SprintFunc(),
		domain.PeerChannel: color.New(color.FgMagenta).SprintFunc(),
	}

	tbl := uitable.New()
	tbl.Separator = "  "

	header := []interface{}{bold("PEER"), bold("KIND"), bold("MSGS")}
	for _, k := range countedKinds {
		header = append(header, bold(columnTitle(k)))
	}
	header = append(header, bold("NOTE"))
	tbl.AddRow(header...)

	for _, r := range rows {
		paint := kindColor[r.Peer.Kind]
		cells := []interface{}{r.Peer.Name, paint(r.Peer.Kind.String()), r.Messages}
		for _, k := range countedKinds {
			cells = append(cells, countCell(r.Media[k]))
		}
		cells = append(cells, r.Migration)
		tbl.AddRow(cells...)
	}

	fmt.Fprintln(w, tbl)
}

// Print renders to the color-aware stdout
func Print(rows []Row) {
	Render(color.Output, rows)
}

func columnTitle(k domain.MediaKind) string {
	switch k {
	case domain.MediaPhoto:
		return "PHOTO"
	case domain.MediaVideo:
		return "VIDEO"
	case domain.MediaFile:
		return "FILE"
	case domain.MediaMusic:
		return "MUSIC"
	case domain.MediaVoice:
		return "VOICE"
	case domain.MediaLink:
		return "LINK"
	case domain.MediaRound:
		return "ROUND"
	}
	return "?"
}

// countCell keeps zero counts out of the table body
func countCell(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", n)
}
