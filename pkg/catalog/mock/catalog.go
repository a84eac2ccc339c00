// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"context"
	"sync"

	"github.com/ethersphere/lobby/pkg/catalog"
	"github.com/ethersphere/lobby/pkg/content"
)

var _ catalog.Resolver = (*Catalog)(nil)

// Catalog is an in memory catalog. Load completes independently of
// presence, once the load gate (if any) is open.
type Catalog struct {
	mu           sync.Mutex
	present      map[content.ID]bool
	previews     map[content.ID]content.Preview
	resolveErr   error
	loadGate     <-chan struct{}
	presentCalls int
	resolveCalls int
}

type Option func(*Catalog)

// WithPresent marks content as present.
func WithPresent(ids ...content.ID) Option {
	return func(c *Catalog) {
		for _, id := range ids {
			c.present[id] = true
		}
	}
}

func WithPreview(p content.Preview) Option {
	return func(c *Catalog) {
		c.previews[p.ID] = p
	}
}

// WithResolveError makes every Resolve call fail with err.
func WithResolveError(err error) Option {
	return func(c *Catalog) {
		c.resolveErr = err
	}
}

// WithLoadGate blocks Load until gate is closed.
func WithLoadGate(gate <-chan struct{}) Option {
	return func(c *Catalog) {
		c.loadGate = gate
	}
}

func New(opts ...Option) *Catalog {
	c := &Catalog{
		present:  make(map[content.ID]bool),
		previews: make(map[content.ID]content.Preview),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Catalog) SetPresent(id content.ID, present bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.present[id] = present
}

func (c *Catalog) IsPresent(id content.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presentCalls++
	return c.present[id]
}

func (c *Catalog) Loaded(id content.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.present[id]
}

func (c *Catalog) Preview(id content.ID) (content.Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.previews[id]; ok {
		return p, nil
	}
	return content.Preview{ID: id, Name: string(id)}, nil
}

func (c *Catalog) Resolve(ctx context.Context, id content.ID) (content.Handle, error) {
	c.mu.Lock()
	c.resolveCalls++
	err := c.resolveErr
	present := c.present[id]
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return content.Handle{}, err
	}
	if err != nil {
		return content.Handle{}, err
	}
	if !present {
		return content.Handle{}, catalog.ErrNotFound
	}
	return c.handle(id)
}

func (c *Catalog) Load(ctx context.Context, id content.ID) (content.Handle, error) {
	if c.loadGate != nil {
		select {
		case <-c.loadGate:
		case <-ctx.Done():
			return content.Handle{}, ctx.Err()
		}
	}
	return c.handle(id)
}

func (c *Catalog) handle(id content.ID) (content.Handle, error) {
	p, err := c.Preview(id)
	if err != nil {
		return content.Handle{}, err
	}
	return content.Handle{ID: id, Preview: p}, nil
}

// PresentCalls returns the number of IsPresent calls.
func (c *Catalog) PresentCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presentCalls
}

// ResolveCalls returns the number of Resolve calls.
func (c *Catalog) ResolveCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolveCalls
}
