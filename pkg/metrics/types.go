// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace is prefixed before every metric. If it is changed, it must be done
	// before any metrics collector is registered.
	Namespace = "lobby"
)

// MetricsCollector is implemented by every component that exposes its
// prometheus collectors for registration.
type MetricsCollector interface {
	Metrics() []prometheus.Collector
}

// Prometheus types aliases
type (
	Collector = prometheus.Collector
	Registry  = prometheus.Registry
	Metric    = prometheus.Metric
	Labels    = prometheus.Labels

	Counter       = prometheus.Counter
	CounterOpts   = prometheus.CounterOpts
	CounterVec    = prometheus.CounterVec
	Gauge         = prometheus.Gauge
	GaugeOpts     = prometheus.GaugeOpts
	Histogram     = prometheus.Histogram
	HistogramOpts = prometheus.HistogramOpts
)
