package domain

import "time"

// PeerID identifies a user, group, or channel in the archive
type PeerID int64

// UserID identifies a user peer specifically
type UserID = PeerID

// MsgID identifies a message within one peer's timeline
type MsgID int64

// PollID identifies a poll
type PollID int64

// FullMsgID locates a message globally: timeline plus message id
type FullMsgID struct {
	Peer PeerID
	Msg  MsgID
}

// Zero reports whether the location is unset
func (id FullMsgID) Zero() bool {
	return id.Peer == 0 && id.Msg == 0
}

// PeerKind distinguishes the three peer flavors
type PeerKind int

const (
	PeerUser PeerKind = iota
	PeerGroup
	PeerChannel
)

func (k PeerKind) String() string {
	switch k {
	case PeerUser:
		return "user"
	case PeerGroup:
		return "group"
	case PeerChannel:
		return "channel"
	}
	return "unknown"
}

// Peer is one archive participant: a user, a group, or a channel
type Peer struct {
	ID           PeerID
	Kind         PeerKind
	Name         string
	Username     string
	About        string
	MemberCount  int
	MigratedTo   PeerID // channel this group became, 0 if none
	MigratedFrom PeerID // group this channel used to be, 0 if none
}

// IsGroup reports whether the peer is a legacy group chat
func (p *Peer) IsGroup() bool { return p != nil && p.Kind == PeerGroup }

// IsChannel reports whether the peer is a channel (or supergroup)
func (p *Peer) IsChannel() bool { return p != nil && p.Kind == PeerChannel }

// MediaKind is the shared-media category of a message
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaFile
	MediaMusic
	MediaVoice
	MediaLink
	MediaRound
)

func (k MediaKind) String() string {
	switch k {
	case MediaNone:
		return "none"
	case MediaPhoto:
		return "photos"
	case MediaVideo:
		return "videos"
	case MediaFile:
		return "files"
	case MediaMusic:
		return "music"
	case MediaVoice:
		return "voice"
	case MediaLink:
		return "links"
	case MediaRound:
		return "round"
	}
	return "unknown"
}

// Message is one archived message row
type Message struct {
	ID      FullMsgID
	From    PeerID
	Date    time.Time
	Text    string
	Media   MediaKind
	File    string // display file name, empty for text-only messages
	Size    int64  // payload size in bytes, 0 when no payload
	BlobKey string // key into the blob store, empty when no payload
	PollID  PollID // non-zero when the message carries a poll
}

// MediaItem is the slim view of a message used by media sections
type MediaItem struct {
	ID      FullMsgID
	Kind    MediaKind
	Date    time.Time
	Caption string
	File    string
	Size    int64
	BlobKey string
}

// MediaSlice is one emitted window over a merged media timeline.
// Items are ordered ascending: every entry from the migration
// predecessor precedes every entry from the successor, and entries
// within one timeline are ordered by message id.
type MediaSlice struct {
	Items         []MediaItem
	SkippedBefore int
	SkippedAfter  int
}

// Member is one participant of a group or channel
type Member struct {
	Peer   PeerID // the group/channel
	User   UserID
	Name   string
	Role   string // "member", "admin", "creator"
	Joined time.Time
}

// Poll is an archived poll with its answers
type Poll struct {
	ID       PollID
	Question string
	Closed   bool
	Answers  []PollAnswer
}

// PollAnswer is one poll option with its vote count
type PollAnswer struct {
	Text  string
	Votes int
}

// TotalVotes sums the votes across all answers
func (p *Poll) TotalVotes() int {
	total := 0
	for _, a := range p.Answers {
		total += a.Votes
	}
	return total
}
