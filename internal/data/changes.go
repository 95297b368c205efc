// Package data holds the live session over an opened archive: a peer
// cache, change notifications, and media timeline streams.
package data

import (
	"log"
	"sync"

	"peerscope/internal/domain"
)

type peerSub struct {
	id   int
	peer domain.PeerID
	mask domain.PeerFlag
	fn   func(domain.PeerUpdate)
}

type mediaSub struct {
	id   int
	peer domain.PeerID
	fn   func(domain.MediaKind)
}

// Changes fans mutations out to observers. Delivery is synchronous on
// the notifying goroutine, in subscription order, so an observer sees
// the update before the mutating call returns.
type Changes struct {
	mu        sync.RWMutex
	nextID    int
	peerSubs  []peerSub
	mediaSubs []mediaSub
}

// NewChanges creates an empty change hub
func NewChanges() *Changes {
	return &Changes{}
}

// OnPeerUpdated subscribes to updates of one peer whose flags overlap
// mask. Returns an unsubscribe function.
func (c *Changes) OnPeerUpdated(peer domain.PeerID, mask domain.PeerFlag, fn func(domain.PeerUpdate)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.peerSubs = append(c.peerSubs, peerSub{id: id, peer: peer, mask: mask, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.peerSubs {
			if s.id == id {
				c.peerSubs = append(c.peerSubs[:i], c.peerSubs[i+1:]...)
				break
			}
		}
	}
}

// OnMediaChanged subscribes to media list changes of one peer's
// timeline. The handler receives the changed kind, MediaNone meaning
// every kind. Returns an unsubscribe function.
func (c *Changes) OnMediaChanged(peer domain.PeerID, fn func(domain.MediaKind)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.mediaSubs = append(c.mediaSubs, mediaSub{id: id, peer: peer, fn: fn})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, s := range c.mediaSubs {
			if s.id == id {
				c.mediaSubs = append(c.mediaSubs[:i], c.mediaSubs[i+1:]...)
				break
			}
		}
	}
}

// NotifyPeer delivers a peer update to matching subscribers
func (c *Changes) NotifyPeer(u domain.PeerUpdate) {
	if u.Peer == nil || u.Flags == 0 {
		return
	}
	if u.Flags&domain.FlagMigration != 0 {
		log.Printf("changes: peer %d migration update (to=%d from=%d)",
			u.Peer.ID, u.Peer.MigratedTo, u.Peer.MigratedFrom)
	}

	// Copy matching handlers so none run under the lock.
	c.mu.RLock()
	var fns []func(domain.PeerUpdate)
	for _, s := range c.peerSubs {
		if s.peer == u.Peer.ID && s.mask&u.Flags != 0 {
			fns = append(fns, s.fn)
		}
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(u)
	}
}

// NotifyMedia delivers a media list change to matching subscribers
func (c *Changes) NotifyMedia(peer domain.PeerID, kind domain.MediaKind) {
	c.mu.RLock()
	var fns []func(domain.MediaKind)
	for _, s := range c.mediaSubs {
		if s.peer == peer {
			fns = append(fns, s.fn)
		}
	}
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(kind)
	}
}
