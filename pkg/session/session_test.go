// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ethersphere/lobby/pkg/session"
)

func TestContainerSnapshot(t *testing.T) {
	c := session.NewContainer()

	for _, p := range []session.PeerID{"b", "a", "c"} {
		if err := c.Connected(p); err != nil {
			t.Fatal(err)
		}
	}

	snapshot := c.CurrentPeers()
	if diff := cmp.Diff([]session.PeerID{"a", "b", "c"}, snapshot); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}

	c.Disconnected("b")

	// a snapshot taken earlier is not changed by later roster mutations
	if diff := cmp.Diff([]session.PeerID{"a", "b", "c"}, snapshot); diff != "" {
		t.Fatalf("snapshot mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]session.PeerID{"a", "c"}, c.CurrentPeers()); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}
}

func TestContainerLocalPeer(t *testing.T) {
	c := session.NewContainer(session.WithLocalPeer("local"))

	if diff := cmp.Diff([]session.PeerID{"local"}, c.CurrentPeers()); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}

	if err := c.Connected("local"); err != nil {
		t.Fatal(err)
	}
	if err := c.Connected("remote"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]session.PeerID{"local", "remote"}, c.CurrentPeers()); diff != "" {
		t.Fatalf("peers mismatch (-want +got):\n%s", diff)
	}
}

func TestContainerInvalidPeer(t *testing.T) {
	if err := session.NewContainer().Connected(""); !errors.Is(err, session.ErrInvalidPeer) {
		t.Fatalf("got error %v, want %v", err, session.ErrInvalidPeer)
	}
}

func TestSubscribePeersChange(t *testing.T) {
	c := session.NewContainer()

	ch, unsubscribe := c.SubscribePeersChange()

	if err := c.Connected("a"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal on connect")
	}

	// disconnecting an unknown peer is not a change
	c.Disconnected("unknown")
	select {
	case <-ch:
		t.Fatal("signal without a change")
	default:
	}

	unsubscribe()
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after unsubscribe")
	}

	// unsubscribing twice must not panic
	unsubscribe()
}
