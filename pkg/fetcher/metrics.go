// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/ethersphere/lobby/pkg/metrics"
)

type metrics struct {
	Fetches       prometheus.Counter
	FetchErrors   prometheus.Counter
	FetchedBytes  prometheus.Counter
	FetchDuration prometheus.Histogram
	InFlight      prometheus.Gauge
}

func newMetrics() metrics {
	subsystem := "fetcher"

	return metrics{
		Fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetches",
			Help:      "Total no. of started content fetches.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetch_errors",
			Help:      "Total no. of failed content fetches.",
		}),
		FetchedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetched_bytes",
			Help:      "Total no. of fetched content bytes.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of successful content fetches.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "in_flight",
			Help:      "No. of content fetches in progress.",
		}),
	}
}

func (f *HTTP) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(f.metrics)
}
