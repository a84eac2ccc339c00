// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"

	"github.com/ethersphere/lobby/pkg/logging"
)

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logrus.InfoLevel)

	logger.Debug("hidden")
	logger.Infof("loading content %s", "custom_level_ABC")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message written at info level: %q", got)
	}
	if !strings.Contains(got, "loading content custom_level_ABC") {
		t.Errorf("info message missing: %q", got)
	}
}

func TestLoggerMetrics(t *testing.T) {
	logger := logging.New(&bytes.Buffer{}, logrus.TraceLevel)

	logger.Warning("one")
	logger.Warningf("%s", "two")
	logger.Error("three")

	cs := logger.Metrics()
	if len(cs) != 1 {
		t.Fatalf("got %d collectors, want 1", len(cs))
	}
	if got := testutil.CollectAndCount(cs[0]); got != 2 {
		t.Errorf("got %d level series, want 2", got)
	}
}

func TestParseVerbosity(t *testing.T) {
	for _, tc := range []struct {
		in      string
		level   logrus.Level
		enabled bool
		wantErr bool
	}{
		{in: "silent"},
		{in: "0"},
		{in: "error", level: logrus.ErrorLevel, enabled: true},
		{in: "3", level: logrus.InfoLevel, enabled: true},
		{in: "trace", level: logrus.TraceLevel, enabled: true},
		{in: "loud", wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			level, enabled, err := logging.ParseVerbosity(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if level != tc.level || enabled != tc.enabled {
				t.Errorf("got %v %v, want %v %v", level, enabled, tc.level, tc.enabled)
			}
		})
	}
}
