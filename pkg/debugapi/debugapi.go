// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package debugapi exposes the debug API used to inspect the loader of a
// running lobby, its roster and the entitlements it knows about.
package debugapi

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/loader"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/metrics"
	"github.com/ethersphere/lobby/pkg/session"
	"github.com/ethersphere/lobby/pkg/tracing"
)

// Loader is the part of the loader the debug API reads.
type Loader interface {
	Status() loader.Status
	SubscribeProgress(fn func(fraction float64)) (unsubscribe func())
}

// Roster is the session roster the debug API reads and updates.
type Roster interface {
	session.Roster
	Connected(peer session.PeerID) error
	Disconnected(peer session.PeerID)
}

// Entitlements is the entitlement store the debug API reads and writes.
type Entitlements interface {
	entitlement.Oracle
	Set(peer session.PeerID, id content.ID, s entitlement.Status) error
}

// Service implements http.Handler interface to be used in HTTP server.
type Service struct {
	logger          logging.Logger
	tracer          *tracing.Tracer
	metricsRegistry *prometheus.Registry

	loader       Loader
	roster       Roster
	entitlements Entitlements

	// handler is changed in the Configure method
	handler   http.Handler
	handlerMu sync.RWMutex

	quit     chan struct{}
	quitOnce sync.Once
	wsWg     sync.WaitGroup
}

// New creates a new Debug API Service with only basic routers enabled in
// order to expose /health and metrics before the loader is constructed.
func New(logger logging.Logger, tracer *tracing.Tracer, version string) *Service {
	s := &Service{
		logger:          logger,
		tracer:          tracer,
		metricsRegistry: metrics.NewRegistry(version),
		quit:            make(chan struct{}),
	}

	s.setRouter(s.newBasicRouter())

	return s
}

// Configure injects the loader dependencies and exposes the routes that
// depend on them, together with /readiness. It is intended to be called only
// once.
func (s *Service) Configure(l Loader, roster Roster, e Entitlements) {
	s.loader = l
	s.roster = roster
	s.entitlements = e

	s.setRouter(s.newRouter())
}

// ServeHTTP implements http.Handler interface.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// protect handler as it is changed by the Configure method
	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()

	h.ServeHTTP(w, r)
}

// Close closes the open progress websockets and waits for them.
func (s *Service) Close() error {
	s.quitOnce.Do(func() { close(s.quit) })
	s.wsWg.Wait()
	return nil
}
