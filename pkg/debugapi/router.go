// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"resenje.org/web"

	"github.com/ethersphere/lobby/pkg/jsonhttp"
	"github.com/ethersphere/lobby/pkg/logging/httpaccess"
)

// newBasicRouter constructs only the routes that do not depend on the
// injected dependencies:
// - /health
// - /metrics
func (s *Service) newBasicRouter() *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(jsonhttp.NotFoundHandler)

	router.Path("/metrics").Handler(web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandler(promhttp.InstrumentMetricHandler(
			s.metricsRegistry,
			promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}),
		)),
	))

	router.Handle("/health", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandlerFunc(statusHandler),
	))

	return router
}

// newRouter constructs the complete set of routes after all of the
// dependencies are injected and exposes /readiness endpoint to provide
// information that Debug API is fully active.
func (s *Service) newRouter() *mux.Router {
	router := s.newBasicRouter()

	router.Handle("/readiness", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(0), // suppress access log messages
		web.FinalHandlerFunc(statusHandler),
	))

	router.Handle("/loader", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.loaderHandler),
	})

	router.Handle("/peers", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.peersHandler),
	})

	router.Handle("/peers/{peer}", jsonhttp.MethodHandler{
		"PUT":    http.HandlerFunc(s.peerConnectHandler),
		"DELETE": http.HandlerFunc(s.peerDisconnectHandler),
	})

	router.Handle("/entitlements/{peer}/{content}", jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(s.getEntitlementHandler),
		"PUT": web.ChainHandlers(
			jsonhttp.NewMaxBodyBytesHandler(entitlementMaxRequestSize),
			web.FinalHandlerFunc(s.setEntitlementHandler),
		),
	})

	router.Handle("/progress", web.ChainHandlers(
		httpaccess.SetAccessLogLevelHandler(logrus.DebugLevel),
		web.FinalHandlerFunc(s.progressWsHandler),
	))

	return router
}

// setRouter sets the base Debug API handler with common middlewares.
func (s *Service) setRouter(router http.Handler) {
	h := http.NewServeMux()
	h.Handle("/", web.ChainHandlers(
		httpaccess.NewHTTPAccessLogHandler(s.logger, logrus.InfoLevel, s.tracer, "debug api access"),
		handlers.RecoveryHandler(
			handlers.RecoveryLogger(s.logger.NewEntry()),
			handlers.PrintRecoveryStack(false),
		),
		web.NoCacheHeadersHandler,
		web.FinalHandler(router),
	))

	s.handlerMu.Lock()
	defer s.handlerMu.Unlock()

	s.handler = h
}
