package domain

// PeerFlag marks which peer attributes an update touched
type PeerFlag uint32

const (
	FlagMigration PeerFlag = 1 << iota
	FlagName
	FlagAbout
	FlagMembers
)

// PeerUpdate is emitted when a peer's attributes change
type PeerUpdate struct {
	Peer  *Peer
	Flags PeerFlag
}

// MediaUpdate is emitted when a peer's media timeline changes.
// Kind is MediaNone when every kind may be affected.
type MediaUpdate struct {
	Peer PeerID
	Kind MediaKind
}
