// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package catalog

import (
	"github.com/prometheus/client_golang/prometheus"

	m "github.com/ethersphere/lobby/pkg/metrics"
)

type metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	Installs       prometheus.Counter
	InstalledBytes prometheus.Counter
	HashMismatches prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "catalog"

	return metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "cache_hits",
			Help:      "Total no. of handles resolved from memory.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "cache_misses",
			Help:      "Total no. of handles resolved from the file system.",
		}),
		HashMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "hash_mismatches",
			Help:      "Total no. of installs rejected because the content did not match its hash.",
		}),
		Installs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "installs",
			Help:      "Total no. of installed content.",
		}),
		InstalledBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "installed_bytes",
			Help:      "Total no. of installed content bytes.",
		}),
	}
}

func (c *Catalog) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(c.metrics)
}
