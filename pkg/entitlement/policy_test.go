// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entitlement_test

import (
	"context"
	"testing"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/session"
)

func TestPolicyBackend(t *testing.T) {
	b, err := entitlement.NewPolicyBackend()
	if err != nil {
		t.Fatal(err)
	}

	if err := b.AllowRules([]string{
		"alice=custom_level_*",
		"*=Level1",
		"bob = custom_level_ABC",
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		peer session.PeerID
		id   content.ID
		want entitlement.Status
	}{
		{peer: "alice", id: content.NewCustomID("ABC"), want: entitlement.StatusOK},
		{peer: "alice", id: content.NewCustomID("DEF"), want: entitlement.StatusOK},
		{peer: "bob", id: content.NewCustomID("ABC"), want: entitlement.StatusOK},
		{peer: "bob", id: content.NewCustomID("DEF"), want: entitlement.StatusDenied},
		{peer: "carol", id: "Level1", want: entitlement.StatusOK},
		{peer: "carol", id: "Level2", want: entitlement.StatusDenied},
	}

	for _, tc := range tests {
		t.Run(string(tc.peer)+"/"+string(tc.id), func(t *testing.T) {
			got, err := b.Entitlement(context.Background(), tc.peer, tc.id)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPolicyBackendInvalidRule(t *testing.T) {
	b, err := entitlement.NewPolicyBackend()
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range []string{"alice", "=custom_level_*", "alice="} {
		if err := b.AllowRules([]string{r}); err == nil {
			t.Errorf("rule %q: expected error", r)
		}
	}
}
