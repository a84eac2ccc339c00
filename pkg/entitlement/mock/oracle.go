// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"sync"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/session"
)

var _ entitlement.Oracle = (*Oracle)(nil)

type key struct {
	peer session.PeerID
	id   content.ID
}

// Oracle is an in memory entitlement.Oracle. Pairs that were never set are
// reported with the default status.
type Oracle struct {
	mu       sync.Mutex
	statuses map[key]entitlement.Status
	fallback entitlement.Status
	calls    int
}

type Option func(*Oracle)

// WithDefault sets the status reported for pairs that were never set.
func WithDefault(s entitlement.Status) Option {
	return func(o *Oracle) {
		o.fallback = s
	}
}

// WithStatus presets the status of a pair.
func WithStatus(peer session.PeerID, id content.ID, s entitlement.Status) Option {
	return func(o *Oracle) {
		o.statuses[key{peer, id}] = s
	}
}

func New(opts ...Option) *Oracle {
	o := &Oracle{statuses: make(map[key]entitlement.Status)}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Oracle) Set(peer session.PeerID, id content.ID, s entitlement.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses[key{peer, id}] = s
}

func (o *Oracle) Status(peer session.PeerID, id content.ID) entitlement.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	if s, ok := o.statuses[key{peer, id}]; ok {
		return s
	}
	return o.fallback
}

// Calls returns the number of Status calls.
func (o *Oracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}
