// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entitlement

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/session"
)

const actionPlay = "play"

var _ Backend = (*PolicyBackend)(nil)

// PolicyBackend grants entitlements from a list of peer and content
// pattern rules. A peer of "*" matches every peer and a pattern may end
// with "*" to match every content id with that prefix. Everything that is
// not allowed is denied.
type PolicyBackend struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicyBackend returns a PolicyBackend with no rules.
func NewPolicyBackend() (*PolicyBackend, error) {
	m, err := model.NewModelFromString(`
	[request_definition]
	r = sub, obj, act

	[policy_definition]
	p = sub, obj, act

	[policy_effect]
	e = some(where (p.eft == allow))

	[matchers]
	m = (r.sub == p.sub || p.sub == '*') && keyMatch(r.obj, p.obj) && r.act == p.act`)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	return &PolicyBackend{enforcer: e}, nil
}

// Allow grants the peer every content id matching the pattern.
func (b *PolicyBackend) Allow(peer, pattern string) error {
	if peer == "" || pattern == "" {
		return fmt.Errorf("invalid policy %q=%q", peer, pattern)
	}
	if _, err := b.enforcer.AddPolicy(peer, pattern, actionPlay); err != nil {
		return fmt.Errorf("add policy: %w", err)
	}
	return nil
}

// AllowRules parses rules in the peer=pattern form and applies them.
func (b *PolicyBackend) AllowRules(rules []string) error {
	for _, r := range rules {
		peer, pattern, ok := strings.Cut(r, "=")
		if !ok {
			return fmt.Errorf("invalid policy %q: expected peer=pattern", r)
		}
		if err := b.Allow(strings.TrimSpace(peer), strings.TrimSpace(pattern)); err != nil {
			return err
		}
	}
	return nil
}

// Entitlement implements Backend.
func (b *PolicyBackend) Entitlement(_ context.Context, peer session.PeerID, id content.ID) (Status, error) {
	ok, err := b.enforcer.Enforce(string(peer), string(id), actionPlay)
	if err != nil {
		return StatusUnknown, fmt.Errorf("enforce: %w", err)
	}
	if ok {
		return StatusOK, nil
	}
	return StatusDenied, nil
}
