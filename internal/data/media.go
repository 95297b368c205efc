package data

import (
	"log"

	"peerscope/internal/domain"
)

// MediaKey identifies one merged media timeline: the peer shown, the
// migration predecessor whose rows lead the timeline (0 when none),
// and the media kind.
type MediaKey struct {
	Peer     domain.PeerID
	Migrated domain.PeerID
	Kind     domain.MediaKind
}

// MediaStream emits windows over a merged media timeline. It is cold:
// each Subscribe computes and delivers the current window, then
// re-delivers whenever either underlying timeline changes.
type MediaStream struct {
	session *Session
	key     MediaKey
	around  domain.FullMsgID
	before  int
	after   int
}

// MediaStream builds a stream over the timeline identified by key,
// windowed around the given anchor
func (s *Session) MediaStream(key MediaKey, around domain.FullMsgID, limitBefore, limitAfter int) *MediaStream {
	return &MediaStream{
		session: s,
		key:     key,
		around:  around,
		before:  limitBefore,
		after:   limitAfter,
	}
}

// Key returns the timeline identity of the stream
func (m *MediaStream) Key() MediaKey {
	return m.key
}

// Subscribe delivers the current window, then again on every relevant
// change. Returns an unsubscribe function.
func (m *MediaStream) Subscribe(fn func(domain.MediaSlice)) func() {
	emit := func() {
		items, err := m.session.MediaItems(m.key.Peer, m.key.Migrated, m.key.Kind)
		if err != nil {
			log.Printf("data: media stream peer=%d kind=%s: %v", m.key.Peer, m.key.Kind, err)
			return
		}
		fn(domain.SliceAround(items, m.key.Migrated, m.around, m.before, m.after))
	}
	emit()

	relevant := func(kind domain.MediaKind) bool {
		return kind == domain.MediaNone || kind == m.key.Kind
	}
	onChange := func(kind domain.MediaKind) {
		if relevant(kind) {
			emit()
		}
	}

	cancels := []func(){m.session.Changes().OnMediaChanged(m.key.Peer, onChange)}
	if m.key.Migrated != 0 {
		cancels = append(cancels, m.session.Changes().OnMediaChanged(m.key.Migrated, onChange))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
