// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package entitlement answers whether a peer may use a piece of content.
//
// The Oracle interface is the cache only view that is safe to call on every
// tick. Checker implements it on top of an LRU cache and a state store, and
// fills them either from announcements of remote peers (Set) or by asking a
// Backend (Request).
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
	"resenje.org/singleflight"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/session"
	"github.com/ethersphere/lobby/pkg/storage"
)

// Status is the entitlement of one peer for one piece of content.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusOK
	StatusDenied
	StatusNotDownloaded
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDenied:
		return "denied"
	case StatusNotDownloaded:
		return "not-downloaded"
	default:
		return "unknown"
	}
}

// ParseStatus returns the Status with the given name.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "ok":
		return StatusOK, nil
	case "denied":
		return StatusDenied, nil
	case "not-downloaded":
		return StatusNotDownloaded, nil
	case "unknown":
		return StatusUnknown, nil
	}
	return StatusUnknown, fmt.Errorf("%w %q", ErrInvalid, s)
}

var (
	ErrNoBackend   = errors.New("entitlement: no backend")
	ErrInvalid     = errors.New("entitlement: invalid status")
	ErrRateLimited = errors.New("entitlement: rate limited")
)

// Oracle reports entitlements that are already known locally. It never
// performs a network round trip.
type Oracle interface {
	Status(peer session.PeerID, id content.ID) Status
}

// Backend is the authority that decides entitlements.
type Backend interface {
	Entitlement(ctx context.Context, peer session.PeerID, id content.ID) (Status, error)
}

// Options configure a Checker.
type Options struct {
	// CacheSize is the number of statuses kept in memory.
	CacheSize int
	// RequestRate limits backend requests per second. Zero means no limit.
	RequestRate float64
	// RequestBurst is the number of backend requests allowed at once.
	RequestBurst int
}

const (
	defaultCacheSize = 1024
	keyPrefix        = "entitlement_"
)

var _ Oracle = (*Checker)(nil)

// Checker is the Oracle used by the lobby.
type Checker struct {
	backend Backend
	store   storage.StateStorer
	cache   *lru.Cache[string, Status]
	limiter *rate.Limiter
	flight  singleflight.Group[string, Status]
	logger  logging.Logger
	metrics metrics
}

// NewChecker returns a Checker. The backend and the store may be nil, in
// which case Request fails with ErrNoBackend and statuses are only kept in
// memory.
func NewChecker(backend Backend, store storage.StateStorer, logger logging.Logger, o Options) (*Checker, error) {
	if o.CacheSize <= 0 {
		o.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, Status](o.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("entitlement cache: %w", err)
	}

	limit := rate.Inf
	if o.RequestRate > 0 {
		limit = rate.Limit(o.RequestRate)
	}
	if o.RequestBurst <= 0 {
		o.RequestBurst = 1
	}

	return &Checker{
		backend: backend,
		store:   store,
		cache:   cache,
		limiter: rate.NewLimiter(limit, o.RequestBurst),
		logger:  logger,
		metrics: newMetrics(),
	}, nil
}

// Status implements Oracle. Unknown is returned when nothing is known about
// the pair yet.
func (c *Checker) Status(peer session.PeerID, id content.ID) Status {
	key := statusKey(peer, id)
	if s, ok := c.cache.Get(key); ok {
		c.metrics.CacheHits.Inc()
		return s
	}
	c.metrics.CacheMisses.Inc()

	if c.store == nil {
		return StatusUnknown
	}

	// persisted statuses are not cached, a Request must still be able to
	// replace them with a fresh backend decision
	var r record
	if err := c.store.Get(key, &r); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.logger.Debugf("entitlement: state store get %s: %v", key, err)
		}
		return StatusUnknown
	}
	return r.Status
}

// Set records the status of a peer, typically announced by the peer itself.
func (c *Checker) Set(peer session.PeerID, id content.ID, s Status) error {
	if s > StatusNotDownloaded {
		return ErrInvalid
	}
	key := statusKey(peer, id)
	c.cache.Add(key, s)

	if c.store == nil {
		return nil
	}
	if err := c.store.Put(key, newRecord(s)); err != nil {
		return fmt.Errorf("entitlement: store %s: %w", key, err)
	}
	return nil
}

// Request returns the status of the pair decided since the checker was
// created, asking the backend otherwise. A status persisted by an earlier
// run is replaced by the backend decision. Concurrent requests for the same
// pair share one backend call.
func (c *Checker) Request(ctx context.Context, peer session.PeerID, id content.ID) (Status, error) {
	if s, ok := c.cache.Get(statusKey(peer, id)); ok {
		c.metrics.CacheHits.Inc()
		return s, nil
	}
	if c.backend == nil {
		return StatusUnknown, ErrNoBackend
	}

	s, _, err := c.flight.Do(ctx, statusKey(peer, id), func(ctx context.Context) (Status, error) {
		c.metrics.Requests.Inc()

		if err := c.limiter.Wait(ctx); err != nil {
			return StatusUnknown, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}

		s, err := c.backend.Entitlement(ctx, peer, id)
		if err != nil {
			return StatusUnknown, fmt.Errorf("entitlement: backend: %w", err)
		}
		if err := c.Set(peer, id, s); err != nil {
			c.logger.Warningf("entitlement: %v", err)
		}
		return s, nil
	})
	if err != nil {
		c.metrics.RequestErrors.Inc()
		return StatusUnknown, err
	}
	return s, nil
}

// Forget drops everything known about a peer.
func (c *Checker) Forget(peer session.PeerID) error {
	prefix := statusKey(peer, "")
	for _, k := range c.cache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Remove(k)
		}
	}

	if c.store == nil {
		return nil
	}

	var keys []string
	if err := c.store.Iterate(prefix, func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return false, nil
	}); err != nil {
		return fmt.Errorf("entitlement: iterate %s: %w", peer, err)
	}
	for _, k := range keys {
		if err := c.store.Delete(k); err != nil {
			return fmt.Errorf("entitlement: delete %s: %w", k, err)
		}
	}
	return nil
}

func statusKey(peer session.PeerID, id content.ID) string {
	return keyPrefix + string(peer) + "/" + string(id)
}
