package routing

import (
	"peerscope/internal/data"
	"peerscope/internal/domain"
	"peerscope/internal/search"
)

// Memento is one section's persisted navigation state: everything
// needed to push the section on a stack and later rebuild it exactly
// as the user left it. The search engine state rides along opaquely.
type Memento struct {
	Key      Key
	Migrated domain.PeerID
	Section  Section

	SearchFieldText        string
	SearchEnabledByContent bool
	SearchStartsFocused    bool
	SearchState            *search.SavedState
}

// NewMemento builds a bare memento for a key and section
func NewMemento(key Key, section Section) *Memento {
	return &Memento{Key: key, Section: section}
}

// MementoForPeer builds a memento keyed on a peer, following an
// applied migration to the successor and deriving the migration
// predecessor from the peer's current state. An unresolvable peer
// yields a plain memento with no predecessor.
func MementoForPeer(s *data.Session, peer domain.PeerID, section Section) *Memento {
	m := NewMemento(PeerKey(peer), section)
	p, err := s.Peer(peer)
	if err != nil {
		return m
	}
	if p.MigratedTo != 0 {
		m.Key = PeerKey(p.MigratedTo)
		if successor, err := s.Peer(p.MigratedTo); err == nil {
			m.Migrated = successor.MigratedFrom
		}
		return m
	}
	m.Migrated = p.MigratedFrom
	return m
}
