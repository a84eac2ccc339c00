// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ethersphere/lobby/pkg/metrics"
)

type nodeMetrics struct {
	// Loads counts the load requests that started a round.
	Loads prometheus.Counter
	// LoadDuration measures time in seconds from a load request until the
	// group is ready.
	LoadDuration prometheus.Histogram
}

func newMetrics() nodeMetrics {
	subsystem := "node"

	return nodeMetrics{
		Loads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystem,
				Name:      "loads_total",
				Help:      "Number of load requests that started a round.",
			},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metrics.Namespace,
				Subsystem: subsystem,
				Name:      "load_duration_seconds",
				Help:      "Duration in seconds from a load request until the group is ready.",
			},
		),
	}
}

func (m nodeMetrics) collectors() []prometheus.Collector {
	return metrics.PrometheusCollectorsFromFields(m)
}
