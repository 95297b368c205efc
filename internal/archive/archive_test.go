package archive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"peerscope/internal/domain"
)

func openSeeded(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	require.NoError(t, Seed(a))
	return a
}

func TestOpenAppliesSchemaAndReopens(t *testing.T) {
	dir := t.TempDir()

	a, err := Open(dir)
	require.NoError(t, err)
	empty, err := a.Empty()
	require.NoError(t, err)
	require.True(t, empty)
	require.NoError(t, a.Close())

	// Second open hits an up-to-date schema and must not fail.
	a, err = Open(dir)
	require.NoError(t, err)
	require.NoError(t, a.Close())
}

func TestSeedPopulatesPeers(t *testing.T) {
	a := openSeeded(t)

	empty, err := a.Empty()
	require.NoError(t, err)
	require.False(t, empty)

	self, err := a.Self()
	require.NoError(t, err)
	require.Equal(t, DemoSelf, self)

	alice, err := a.Peer(DemoAlice)
	require.NoError(t, err)
	require.Equal(t, "Alice Baker", alice.Name)
	require.Equal(t, domain.PeerUser, alice.Kind)

	_, err = a.Peer(9999)
	require.ErrorIs(t, err, ErrNotFound)

	peers, err := a.Peers()
	require.NoError(t, err)
	require.Len(t, peers, 8)
}

func TestMergedMediaOrdersPredecessorFirst(t *testing.T) {
	a := openSeeded(t)

	items, err := a.MediaItems(DemoDesignChan, DemoDesignChat, domain.MediaPhoto)
	require.NoError(t, err)

	var got []domain.FullMsgID
	for _, it := range items {
		got = append(got, it.ID)
	}
	require.Equal(t, []domain.FullMsgID{
		{Peer: DemoDesignChat, Msg: 1},
		{Peer: DemoDesignChat, Msg: 2},
		{Peer: DemoDesignChan, Msg: 1},
	}, got)
}

func TestApplyMigrationLinksBothPeers(t *testing.T) {
	a := openSeeded(t)

	require.NoError(t, a.ApplyMigration(DemoHikingChat, DemoHikingChan))

	chat, err := a.Peer(DemoHikingChat)
	require.NoError(t, err)
	require.Equal(t, DemoHikingChan, chat.MigratedTo)

	channel, err := a.Peer(DemoHikingChan)
	require.NoError(t, err)
	require.Equal(t, DemoHikingChat, channel.MigratedFrom)

	items, err := a.MediaItems(DemoHikingChan, DemoHikingChat, domain.MediaPhoto)
	require.NoError(t, err)
	require.Len(t, items, 4)
	require.Equal(t, domain.FullMsgID{Peer: DemoHikingChat, Msg: 1}, items[0].ID)
	require.Equal(t, domain.FullMsgID{Peer: DemoHikingChan, Msg: 2}, items[3].ID)
}

func TestSearchMediaSubstringAndFuzzy(t *testing.T) {
	a := openSeeded(t)

	items, err := a.SearchMedia(DemoDesignChan, DemoDesignChat, domain.MediaPhoto, "logo")
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Misspelled query falls through to the fuzzy pass.
	items, err = a.SearchMedia(DemoDesignChan, DemoDesignChat, domain.MediaPhoto, "lgoo")
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Short misspellings stay strict.
	items, err = a.SearchMedia(DemoDesignChan, DemoDesignChat, domain.MediaPhoto, "lgo")
	require.NoError(t, err)
	require.Empty(t, items)

	// Empty query means everything.
	items, err = a.SearchMedia(DemoDesignChan, DemoDesignChat, domain.MediaPhoto, "  ")
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestDeleteMessageRemovesRowAndBlob(t *testing.T) {
	a := openSeeded(t)

	id := domain.FullMsgID{Peer: DemoAlice, Msg: 2}
	msg, err := a.Message(id)
	require.NoError(t, err)
	require.NotEmpty(t, msg.BlobKey)
	require.True(t, a.Blobs().Has(msg.BlobKey))

	require.NoError(t, a.DeleteMessage(id))
	_, err = a.Message(id)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, a.Blobs().Has(msg.BlobKey))

	// Deleting again is a no-op.
	require.NoError(t, a.DeleteMessage(id))
}

func TestBlobRoundTrip(t *testing.T) {
	store, err := NewBlobStore(t.TempDir())
	require.NoError(t, err)

	payload := []byte("not actually a jpeg, but compresses like one one one one one")
	require.NoError(t, store.Put("ab-test-key", payload))
	require.True(t, store.Has("ab-test-key"))

	got, err := store.Get("ab-test-key")
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.NoError(t, store.Delete("ab-test-key"))
	require.False(t, store.Has("ab-test-key"))
}

func TestCommonGroups(t *testing.T) {
	a := openSeeded(t)

	groups, err := a.CommonGroups(DemoAlice, DemoSelf)
	require.NoError(t, err)

	var ids []domain.PeerID
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	// Ordered by name then id: both Design Team peers, then both
	// Hiking Club peers.
	require.Equal(t, []domain.PeerID{
		DemoDesignChat, DemoDesignChan, DemoHikingChat, DemoHikingChan,
	}, ids)

	groups, err = a.CommonGroups(DemoBob, DemoSelf)
	require.NoError(t, err)
	require.Len(t, groups, 2)
}

func TestPollWithAnswers(t *testing.T) {
	a := openSeeded(t)

	poll, err := a.Poll(1)
	require.NoError(t, err)
	require.Equal(t, "Where should we hike next?", poll.Question)
	require.Len(t, poll.Answers, 3)
	require.Equal(t, 7, poll.TotalVotes())

	_, err = a.Poll(42)
	require.ErrorIs(t, err, ErrNotFound)

	msg, err := a.Message(domain.FullMsgID{Peer: DemoHikingChat, Msg: 7})
	require.NoError(t, err)
	require.Equal(t, domain.PollID(1), msg.PollID)
}

func TestMessagesAround(t *testing.T) {
	a := openSeeded(t)

	msgs, err := a.MessagesAround(DemoAlice, 5, 2, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, domain.MsgID(4), msgs[0].ID.Msg)
	require.Equal(t, domain.MsgID(7), msgs[3].ID.Msg)

	// Zero anchor gives the latest window.
	msgs, err = a.MessagesAround(DemoAlice, 0, 3, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, domain.MsgID(7), msgs[0].ID.Msg)
	require.Equal(t, domain.MsgID(9), msgs[2].ID.Msg)
}

func TestMediaCount(t *testing.T) {
	a := openSeeded(t)

	n, err := a.MediaCount(DemoAlice, 0, domain.MediaPhoto)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// All media kinds at once, links included.
	n, err = a.MediaCount(DemoAlice, 0, domain.MediaNone)
	require.NoError(t, err)
	require.Equal(t, 7, n)
}
