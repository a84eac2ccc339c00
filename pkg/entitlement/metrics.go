// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entitlement

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/ethersphere/lobby/pkg/metrics"
)

type metrics struct {
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Requests      prometheus.Counter
	RequestErrors prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "entitlement"

	return metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "cache_hits",
			Help:      "Total no. of statuses found in memory.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "cache_misses",
			Help:      "Total no. of statuses not found in memory.",
		}),
		Requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "backend_requests",
			Help:      "Total no. of requests made to the entitlement backend.",
		}),
		RequestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "backend_request_errors",
			Help:      "Total no. of failed entitlement requests.",
		}),
	}
}

func (c *Checker) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(c.metrics)
}
