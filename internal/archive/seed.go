package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"peerscope/internal/domain"
)

// Demo peer ids used by the seeded archive
const (
	DemoSelf       domain.UserID = 1
	DemoAlice      domain.UserID = 2
	DemoBob        domain.UserID = 3
	DemoHikingChat domain.PeerID = 100
	DemoHikingChan domain.PeerID = 200
	DemoDesignChat domain.PeerID = 300
	DemoDesignChan domain.PeerID = 400
	DemoGoWeekly   domain.PeerID = 500
)

// Seed fills an empty archive with a small demo dataset: a couple of
// direct chats, a legacy group left unmigrated so migration can be
// played back live, and an already-migrated pair whose media timelines
// merge.
func Seed(a *Archive) error {
	if err := a.SetSelf(DemoSelf); err != nil {
		return err
	}

	peers := []*domain.Peer{
		{ID: DemoSelf, Kind: domain.PeerUser, Name: "You", Username: "me"},
		{ID: DemoAlice, Kind: domain.PeerUser, Name: "Alice Baker", Username: "alice",
			About: "Photographer. Mostly mountains."},
		{ID: DemoBob, Kind: domain.PeerUser, Name: "Bob Clark", Username: "bobc",
			About: "Sends too many links"},
		{ID: DemoHikingChat, Kind: domain.PeerGroup, Name: "Hiking Club", MemberCount: 3,
			About: "Weekend trips around the valley"},
		{ID: DemoHikingChan, Kind: domain.PeerChannel, Name: "Hiking Club", Username: "hikingclub",
			MemberCount: 3, About: "Weekend trips around the valley"},
		{ID: DemoDesignChat, Kind: domain.PeerGroup, Name: "Design Team", MemberCount: 2,
			MigratedTo: DemoDesignChan},
		{ID: DemoDesignChan, Kind: domain.PeerChannel, Name: "Design Team", Username: "designteam",
			MemberCount: 2, MigratedFrom: DemoDesignChat},
		{ID: DemoGoWeekly, Kind: domain.PeerChannel, Name: "Go Weekly", Username: "goweekly",
			MemberCount: 1, About: "One link per week, usually more"},
	}
	for _, p := range peers {
		if err := a.PutPeer(p); err != nil {
			return err
		}
	}

	base := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	put := func(peer domain.PeerID, msg domain.MsgID, from domain.PeerID, hours int,
		text string, kind domain.MediaKind, file string) error {
		m := &domain.Message{
			ID:    domain.FullMsgID{Peer: peer, Msg: msg},
			From:  from,
			Date:  base.Add(time.Duration(hours) * time.Hour),
			Text:  text,
			Media: kind,
			File:  file,
		}
		var payload []byte
		if kind != domain.MediaNone && kind != domain.MediaLink {
			payload = demoPayload(file, kind)
			m.Size = int64(len(payload))
			m.BlobKey = uuid.NewString()
		}
		return a.PutMessage(m, payload)
	}

	type row struct {
		peer  domain.PeerID
		msg   domain.MsgID
		from  domain.PeerID
		hours int
		text  string
		kind  domain.MediaKind
		file  string
	}
	rows := []row{
		// Direct chat with Alice: photos, a file, music, some links.
		{DemoAlice, 1, DemoAlice, 0, "morning! sending the shots from saturday", domain.MediaNone, ""},
		{DemoAlice, 2, DemoAlice, 1, "ridge at sunrise", domain.MediaPhoto, "ridge-sunrise.jpg"},
		{DemoAlice, 3, DemoAlice, 1, "the lake from the north side", domain.MediaPhoto, "lake-north.jpg"},
		{DemoAlice, 4, DemoSelf, 2, "these are great", domain.MediaNone, ""},
		{DemoAlice, 5, DemoAlice, 3, "full set in one archive", domain.MediaFile, "saturday-photos.zip"},
		{DemoAlice, 6, DemoAlice, 5, "trail playlist", domain.MediaMusic, "trail-mix.mp3"},
		{DemoAlice, 7, DemoSelf, 6, "https://maps.example.org/ridge-route", domain.MediaLink, ""},
		{DemoAlice, 8, DemoAlice, 8, "voice note about sunday", domain.MediaVoice, "note-sunday.ogg"},
		{DemoAlice, 9, DemoAlice, 9, "clip from the summit", domain.MediaRound, "summit-round.mp4"},

		// Chat with Bob: links, links, links.
		{DemoBob, 1, DemoBob, 0, "https://blog.example.com/go-generics-later", domain.MediaLink, ""},
		{DemoBob, 2, DemoBob, 2, "https://example.net/sqlite-tricks", domain.MediaLink, ""},
		{DemoBob, 3, DemoSelf, 3, "stop", domain.MediaNone, ""},
		{DemoBob, 4, DemoBob, 4, "https://example.net/one-more", domain.MediaLink, ""},

		// Hiking Club while still a legacy group. Stays unmigrated in
		// the seed so migration can be triggered at runtime.
		{DemoHikingChat, 1, DemoAlice, 0, "trailhead meetup photo", domain.MediaPhoto, "trailhead.jpg"},
		{DemoHikingChat, 2, DemoBob, 2, "gpx for the long loop", domain.MediaFile, "long-loop.gpx"},
		{DemoHikingChat, 3, DemoAlice, 4, "waterfall on the way down", domain.MediaPhoto, "waterfall.jpg"},
		{DemoHikingChat, 4, DemoSelf, 5, "who is in for next week?", domain.MediaNone, ""},
		{DemoHikingChat, 5, DemoBob, 6, "voice reply", domain.MediaVoice, "bob-reply.ogg"},
		{DemoHikingChat, 6, DemoAlice, 8, "group shot at the pass", domain.MediaPhoto, "pass-group.jpg"},

		// The successor channel's own timeline, disjoint ids.
		{DemoHikingChan, 1, DemoAlice, 20, "new channel, same hikes", domain.MediaNone, ""},
		{DemoHikingChan, 2, DemoAlice, 21, "first channel photo", domain.MediaPhoto, "channel-first.jpg"},
		{DemoHikingChan, 3, DemoBob, 23, "route video", domain.MediaVideo, "route-flyover.mp4"},
		{DemoHikingChan, 4, DemoAlice, 26, "next season schedule", domain.MediaFile, "schedule.pdf"},

		// Design Team, already migrated: group rows precede channel rows
		// in the merged timeline.
		{DemoDesignChat, 1, DemoAlice, 0, "old logo draft", domain.MediaPhoto, "logo-draft-1.png"},
		{DemoDesignChat, 2, DemoAlice, 3, "old logo draft two", domain.MediaPhoto, "logo-draft-2.png"},
		{DemoDesignChat, 3, DemoSelf, 5, "brand survey results", domain.MediaFile, "survey.xlsx"},
		{DemoDesignChan, 1, DemoAlice, 30, "final logo", domain.MediaPhoto, "logo-final.png"},
		{DemoDesignChan, 2, DemoSelf, 33, "style guide", domain.MediaFile, "style-guide.pdf"},
		{DemoDesignChan, 3, DemoAlice, 35, "launch teaser", domain.MediaVideo, "teaser.mp4"},

		// Go Weekly: a broadcast of links.
		{DemoGoWeekly, 1, DemoGoWeekly, 0, "https://example.org/issue-41", domain.MediaLink, ""},
		{DemoGoWeekly, 2, DemoGoWeekly, 24, "https://example.org/issue-42", domain.MediaLink, ""},
		{DemoGoWeekly, 3, DemoGoWeekly, 48, "https://example.org/issue-43", domain.MediaLink, ""},
	}
	for _, r := range rows {
		if err := put(r.peer, r.msg, r.from, r.hours, r.text, r.kind, r.file); err != nil {
			return err
		}
	}

	// A poll in the hiking group, reachable from its context message.
	poll := &domain.Poll{
		ID:       1,
		Question: "Where should we hike next?",
		Answers: []domain.PollAnswer{
			{Text: "The ridge again", Votes: 2},
			{Text: "Lake loop", Votes: 4},
			{Text: "Stay home", Votes: 1},
		},
	}
	if err := a.PutPoll(poll); err != nil {
		return err
	}
	if err := a.PutMessage(&domain.Message{
		ID:     domain.FullMsgID{Peer: DemoHikingChat, Msg: 7},
		From:   DemoSelf,
		Date:   base.Add(9 * time.Hour),
		Text:   "vote!",
		PollID: poll.ID,
	}, nil); err != nil {
		return err
	}

	members := []domain.Member{
		{Peer: DemoHikingChat, User: DemoSelf, Name: "You", Role: "creator", Joined: base},
		{Peer: DemoHikingChat, User: DemoAlice, Name: "Alice Baker", Role: "admin", Joined: base.Add(time.Hour)},
		{Peer: DemoHikingChat, User: DemoBob, Name: "Bob Clark", Role: "member", Joined: base.Add(2 * time.Hour)},
		{Peer: DemoHikingChan, User: DemoSelf, Name: "You", Role: "creator", Joined: base.Add(20 * time.Hour)},
		{Peer: DemoHikingChan, User: DemoAlice, Name: "Alice Baker", Role: "admin", Joined: base.Add(20 * time.Hour)},
		{Peer: DemoHikingChan, User: DemoBob, Name: "Bob Clark", Role: "member", Joined: base.Add(21 * time.Hour)},
		{Peer: DemoDesignChat, User: DemoSelf, Name: "You", Role: "member", Joined: base},
		{Peer: DemoDesignChat, User: DemoAlice, Name: "Alice Baker", Role: "creator", Joined: base},
		{Peer: DemoDesignChan, User: DemoSelf, Name: "You", Role: "member", Joined: base.Add(30 * time.Hour)},
		{Peer: DemoDesignChan, User: DemoAlice, Name: "Alice Baker", Role: "creator", Joined: base.Add(30 * time.Hour)},
		{Peer: DemoGoWeekly, User: DemoSelf, Name: "You", Role: "member", Joined: base},
	}
	for i := range members {
		if err := a.PutMember(&members[i]); err != nil {
			return err
		}
	}
	return nil
}

// demoPayload builds a deterministic fake media payload
func demoPayload(file string, kind domain.MediaKind) []byte {
	header := fmt.Sprintf("demo %s payload for %s\n", kind, file)
	return []byte(header + strings.Repeat("0123456789abcdef", 96))
}
