package report

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peerscope/internal/archive"
	"peerscope/internal/data"
	"peerscope/internal/domain"
)

func seededSession(t *testing.T) *data.Session {
	t.Helper()
	arc, err := archive.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { arc.Close() })
	require.NoError(t, archive.Seed(arc))

	sess, err := data.NewSession(arc)
	require.NoError(t, err)
	return sess
}

func TestBuildCountsPerPeer(t *testing.T) {
	sess := seededSession(t)

	rows, err := Build(sess)
	require.NoError(t, err)
	require.Len(t, rows, 8, "one row per seeded peer")

	// Peers come back sorted by name, so Alice is first.
	alice := rows[0]
	assert.Equal(t, "Alice Baker", alice.Peer.Name)
	assert.Equal(t, 9, alice.Messages)
	assert.Equal(t, 2, alice.Media[domain.MediaPhoto])
	assert.Equal(t, 1, alice.Media[domain.MediaFile])
	assert.Equal(t, 1, alice.Media[domain.MediaRound])
	assert.NotContains(t, alice.Media, domain.MediaVideo, "zero counts are omitted")
	assert.Empty(t, alice.Migration)
}

func TestBuildAnnotatesMigrationPair(t *testing.T) {
	sess := seededSession(t)

	rows, err := Build(sess)
	require.NoError(t, err)

	byID := make(map[domain.PeerID]Row)
	for _, r := range rows {
		byID[r.Peer.ID] = r
	}

	assert.Equal(t, "now Design Team", byID[archive.DemoDesignChat].Migration)
	assert.Equal(t, "was Design Team", byID[archive.DemoDesignChan].Migration)
	assert.Empty(t, byID[archive.DemoHikingChat].Migration, "unmigrated group carries no note")
}

func TestRenderTable(t *testing.T) {
	sess := seededSession(t)
	rows, err := Build(sess)
	require.NoError(t, err)

	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	var buf bytes.Buffer
	Render(&buf, rows)

	out := buf.String()
	assert.Contains(t, out, "PEER")
	assert.Contains(t, out, "PHOTO")
	assert.Contains(t, out, "Alice Baker")
	assert.Contains(t, out, "now Design Team")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	Render(&buf, nil)
	assert.Equal(t, "archive is empty\n", buf.String())
}
