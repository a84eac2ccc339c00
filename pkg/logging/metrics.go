// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	m "github.com/ethersphere/lobby/pkg/metrics"
)

type metrics struct {
	MessagesCount *prometheus.CounterVec
}

func newMetrics() metrics {
	return metrics{
		MessagesCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: "log",
			Name:      "messages_count",
			Help:      "Number of log messages by level.",
		}, []string{"level"}),
	}
}

func (m metrics) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (m metrics) Fire(e *logrus.Entry) error {
	m.MessagesCount.WithLabelValues(e.Level.String()).Inc()
	return nil
}
