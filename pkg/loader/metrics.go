// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/ethersphere/lobby/pkg/metrics"
)

type metrics struct {
	Loads             prometheus.Counter
	FetchesStarted    prometheus.Counter
	FetchFailures     prometheus.Counter
	SupersededFetches prometheus.Counter
	DroppedProgress   prometheus.Counter
	FetchDuration     prometheus.Histogram
	GroupWaitDuration prometheus.Histogram
	State             prometheus.Gauge
}

func newMetrics() metrics {
	subsystem := "loader"

	return metrics{
		Loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "loads",
			Help:      "Total no. of started rounds.",
		}),
		FetchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetches_started",
			Help:      "Total no. of background fetches started for absent content.",
		}),
		FetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetch_failures",
			Help:      "Total no. of failed background fetches.",
		}),
		SupersededFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "superseded_fetches",
			Help:      "Total no. of background fetches cancelled by a new round.",
		}),
		DroppedProgress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "dropped_progress",
			Help:      "Total no. of progress reports dropped from superseded fetches.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of successful background fetches.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		GroupWaitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "group_wait_duration_seconds",
			Help:      "Time spent waiting for every peer to be ready.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		State: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "state",
			Help:      "Load state of the current round.",
		}),
	}
}

func (l *Loader) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(l.metrics)
}
