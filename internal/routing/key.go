// Package routing owns the identity of what an info panel is showing:
// the routing key, the active section, the optional search state bound
// to that section, and the migration follow-up that keeps navigation
// pointed at the right peer.
package routing

import "peerscope/internal/domain"

// KeyKind tags the active variant of a Key
type KeyKind int

const (
	KeyNone KeyKind = iota
	KeyPeer
	KeySettings
	KeyDownloads
	KeyPoll
)

func (k KeyKind) String() string {
	switch k {
	case KeyPeer:
		return "peer"
	case KeySettings:
		return "settings"
	case KeyDownloads:
		return "downloads"
	case KeyPoll:
		return "poll"
	}
	return "none"
}

// Key identifies what is being viewed: a peer, the settings of a user,
// the downloads list, or a poll with its context message. Exactly one
// variant is active; keys are immutable and compare structurally.
type Key struct {
	kind     KeyKind
	peer     domain.PeerID
	settings domain.UserID
	poll     domain.PollID
	pollCtx  domain.FullMsgID
}

// PeerKey keys a view on one peer
func PeerKey(peer domain.PeerID) Key {
	return Key{kind: KeyPeer, peer: peer}
}

// SettingsKey keys the settings view of one user
func SettingsKey(user domain.UserID) Key {
	return Key{kind: KeySettings, settings: user}
}

// DownloadsKey keys the downloads view
func DownloadsKey() Key {
	return Key{kind: KeyDownloads}
}

// PollKey keys a poll view anchored at its context message
func PollKey(poll domain.PollID, context domain.FullMsgID) Key {
	return Key{kind: KeyPoll, poll: poll, pollCtx: context}
}

// Kind returns the active variant tag
func (k Key) Kind() KeyKind {
	return k.kind
}

// Peer returns the viewed peer, 0 for non-peer keys
func (k Key) Peer() domain.PeerID {
	if k.kind != KeyPeer {
		return 0
	}
	return k.peer
}

// SettingsUser returns the settings target, 0 for non-settings keys
func (k Key) SettingsUser() domain.UserID {
	if k.kind != KeySettings {
		return 0
	}
	return k.settings
}

// IsDownloads reports whether the key is the downloads view
func (k Key) IsDownloads() bool {
	return k.kind == KeyDownloads
}

// Poll returns the viewed poll and its context message, zero values
// for non-poll keys
func (k Key) Poll() (domain.PollID, domain.FullMsgID) {
	if k.kind != KeyPoll {
		return 0, domain.FullMsgID{}
	}
	return k.poll, k.pollCtx
}

// Zero reports whether the key holds no variant
func (k Key) Zero() bool {
	return k.kind == KeyNone
}
