// Package search implements the query machinery behind section search:
// a field controller holding what the user typed, and a delayed
// controller that debounces queries and resolves them against the
// archive.
package search

import "peerscope/internal/domain"

// Query is one fully-specified search request: what to look for and
// which merged timeline to look in
type Query struct {
	Kind     domain.MediaKind
	Peer     domain.PeerID
	Migrated domain.PeerID
	Text     string
}

// SavedState captures a resolved search so a later restore resumes it
// without re-running the debounce
type SavedState struct {
	Query  Query
	Anchor domain.FullMsgID
}
