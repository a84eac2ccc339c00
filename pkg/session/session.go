// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package session keeps track of the peers connected to a multiplayer
// session.
package session

import (
	"errors"
	"sort"
	"sync"
)

var ErrInvalidPeer = errors.New("invalid peer id")

// PeerID identifies a connected participant for the duration of a session.
type PeerID string

func (p PeerID) String() string {
	return string(p)
}

// Roster exposes the live set of connected peers.
type Roster interface {
	// CurrentPeers returns a point in time snapshot of the connected peers.
	// The returned slice is owned by the caller.
	CurrentPeers() []PeerID
}

// Container is a Roster that is told about connections and disconnections
// by the session transport.
type Container struct {
	local     PeerID
	withLocal bool

	peerMu sync.RWMutex
	peers  map[PeerID]struct{}

	peerSigMtx sync.Mutex
	peerSig    []chan struct{}
}

// Option configures a Container.
type Option func(*Container)

// WithLocalPeer makes the local peer part of every snapshot, in addition to
// the connected remote peers.
func WithLocalPeer(local PeerID) Option {
	return func(c *Container) {
		c.local = local
		c.withLocal = true
	}
}

// NewContainer returns an empty Container.
func NewContainer(opts ...Option) *Container {
	c := &Container{
		peers: make(map[PeerID]struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Connected adds a peer to the roster.
func (c *Container) Connected(peer PeerID) error {
	if peer == "" {
		return ErrInvalidPeer
	}

	c.peerMu.Lock()
	_, exists := c.peers[peer]
	c.peers[peer] = struct{}{}
	c.peerMu.Unlock()

	if !exists {
		c.notifyPeerSig()
	}
	return nil
}

// Disconnected removes a peer from the roster.
func (c *Container) Disconnected(peer PeerID) {
	c.peerMu.Lock()
	_, exists := c.peers[peer]
	delete(c.peers, peer)
	c.peerMu.Unlock()

	if exists {
		c.notifyPeerSig()
	}
}

// CurrentPeers implements Roster. Peers are sorted so that snapshots are
// deterministic.
func (c *Container) CurrentPeers() []PeerID {
	c.peerMu.RLock()
	defer c.peerMu.RUnlock()

	peers := make([]PeerID, 0, len(c.peers)+1)
	if c.withLocal {
		peers = append(peers, c.local)
	}
	for p := range c.peers {
		if c.withLocal && p == c.local {
			continue
		}
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers
}

// SubscribePeersChange returns a channel that signals every time the set of
// connected peers changes.
func (c *Container) SubscribePeersChange() (ch <-chan struct{}, unsubscribe func()) {
	channel := make(chan struct{}, 1)
	var closeOnce sync.Once

	c.peerSigMtx.Lock()
	defer c.peerSigMtx.Unlock()

	c.peerSig = append(c.peerSig, channel)

	unsubscribe = func() {
		c.peerSigMtx.Lock()
		defer c.peerSigMtx.Unlock()

		for i, s := range c.peerSig {
			if s == channel {
				c.peerSig = append(c.peerSig[:i], c.peerSig[i+1:]...)
				break
			}
		}

		closeOnce.Do(func() { close(channel) })
	}

	return channel, unsubscribe
}

func (c *Container) notifyPeerSig() {
	c.peerSigMtx.Lock()
	defer c.peerSigMtx.Unlock()

	for _, s := range c.peerSig {
		// Every peerSig channel has a buffer capacity of 1,
		// so every receiver will get the signal even if the
		// select statement has the default case to avoid blocking.
		select {
		case s <- struct{}{}:
		default:
		}
	}
}
