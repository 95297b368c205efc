package data

import (
	"fmt"
	"sync"

	"peerscope/internal/archive"
	"peerscope/internal/domain"
)

// Session is the live view over an opened archive. Reads go through a
// peer cache; writes go through to the archive and notify observers.
type Session struct {
	arc     *archive.Archive
	changes *Changes
	self    domain.UserID

	mu    sync.RWMutex
	peers map[domain.PeerID]*domain.Peer
}

// NewSession opens a session over an archive
func NewSession(arc *archive.Archive) (*Session, error) {
	self, err := arc.Self()
	if err != nil {
		return nil, err
	}
	return &Session{
		arc:     arc,
		changes: NewChanges(),
		self:    self,
		peers:   make(map[domain.PeerID]*domain.Peer),
	}, nil
}

// Changes returns the session's change hub
func (s *Session) Changes() *Changes {
	return s.changes
}

// Archive returns the underlying archive
func (s *Session) Archive() *archive.Archive {
	return s.arc
}

// Self returns the export owner's user id
func (s *Session) Self() domain.UserID {
	return s.self
}

// Peer returns a peer, from cache when already loaded
func (s *Session) Peer(id domain.PeerID) (*domain.Peer, error) {
	s.mu.RLock()
	p, ok := s.peers[id]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	p, err := s.arc.Peer(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.peers[id] = p
	s.mu.Unlock()
	return p, nil
}

// Peers lists every peer in the archive
func (s *Session) Peers() ([]*domain.Peer, error) {
	return s.arc.Peers()
}

// DisplayName resolves a peer id to something printable
func (s *Session) DisplayName(id domain.PeerID) string {
	p, err := s.Peer(id)
	if err != nil {
		return fmt.Sprintf("user %d", id)
	}
	return p.Name
}

// Message returns one message row
func (s *Session) Message(id domain.FullMsgID) (*domain.Message, error) {
	return s.arc.Message(id)
}

// Poll returns one poll with its answers
func (s *Session) Poll(id domain.PollID) (*domain.Poll, error) {
	return s.arc.Poll(id)
}

// Members returns the membership of a group or channel
func (s *Session) Members(peer domain.PeerID) ([]domain.Member, error) {
	return s.arc.Members(peer)
}

// CommonGroups returns groups shared between a user and the export owner
func (s *Session) CommonGroups(user domain.UserID) ([]*domain.Peer, error) {
	return s.arc.CommonGroups(user, s.self)
}

// HistoryAround returns a window of a peer's message timeline
func (s *Session) HistoryAround(peer domain.PeerID, around domain.MsgID, before, after int) ([]domain.Message, error) {
	return s.arc.MessagesAround(peer, around, before, after)
}

// MediaItems returns a full merged media timeline
func (s *Session) MediaItems(peer, migrated domain.PeerID, kind domain.MediaKind) ([]domain.MediaItem, error) {
	return s.arc.MediaItems(peer, migrated, kind)
}

// SearchMedia filters a merged media timeline by text
func (s *Session) SearchMedia(peer, migrated domain.PeerID, kind domain.MediaKind, query string) ([]domain.MediaItem, error) {
	return s.arc.SearchMedia(peer, migrated, kind, query)
}

// AddMediaMessage writes a message through to the archive and notifies
// media observers of its timeline
func (s *Session) AddMediaMessage(m *domain.Message, payload []byte) error {
	if err := s.arc.PutMessage(m, payload); err != nil {
		return err
	}
	if m.Media != domain.MediaNone {
		s.changes.NotifyMedia(m.ID.Peer, m.Media)
	}
	return nil
}

// DeleteMessage removes a message and notifies media observers when it
// carried media
func (s *Session) DeleteMessage(id domain.FullMsgID) error {
	msg, err := s.arc.Message(id)
	if err != nil {
		return err
	}
	if err := s.arc.DeleteMessage(id); err != nil {
		return err
	}
	if msg.Media != domain.MediaNone {
		s.changes.NotifyMedia(id.Peer, msg.Media)
	}
	return nil
}

// ApplyMigration links a legacy group to its successor channel and
// notifies observers of both peers. Replays of an already-applied
// migration are no-ops.
func (s *Session) ApplyMigration(chat, channel domain.PeerID) error {
	chatPeer, err := s.Peer(chat)
	if err != nil {
		return err
	}
	channelPeer, err := s.Peer(channel)
	if err != nil {
		return err
	}
	if chatPeer.MigratedTo == channel && channelPeer.MigratedFrom == chat {
		return nil
	}

	if err := s.arc.ApplyMigration(chat, channel); err != nil {
		return err
	}

	// Cache fresh copies so observers never see a half-applied link.
	updatedChat := *chatPeer
	updatedChat.MigratedTo = channel
	updatedChannel := *channelPeer
	updatedChannel.MigratedFrom = chat
	s.mu.Lock()
	s.peers[chat] = &updatedChat
	s.peers[channel] = &updatedChannel
	s.mu.Unlock()

	s.changes.NotifyPeer(domain.PeerUpdate{Peer: &updatedChat, Flags: domain.FlagMigration})
	s.changes.NotifyPeer(domain.PeerUpdate{Peer: &updatedChannel, Flags: domain.FlagMigration})
	return nil
}
