// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"resenje.org/web"

	"github.com/ethersphere/lobby/pkg/debugapi"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/jsonhttp"
	"github.com/ethersphere/lobby/pkg/jsonhttp/jsonhttptest"
	"github.com/ethersphere/lobby/pkg/loader"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/session"
	statestoremock "github.com/ethersphere/lobby/pkg/statestore/mock"
)

type testServerOptions struct {
	Status       loader.Status
	Peers        []session.PeerID
	Unconfigured bool
}

type testServer struct {
	Client       *http.Client
	URL          string
	Loader       *loaderMock
	Entitlements *entitlement.Checker
	Service      *debugapi.Service
}

func newTestServer(t *testing.T, o testServerOptions) *testServer {
	t.Helper()

	logger := logging.New(io.Discard, 0)

	roster := session.NewContainer()
	for _, p := range o.Peers {
		if err := roster.Connected(p); err != nil {
			t.Fatal(err)
		}
	}

	checker, err := entitlement.NewChecker(nil, statestoremock.NewStateStore(), logger, entitlement.Options{})
	if err != nil {
		t.Fatal(err)
	}

	l := &loaderMock{status: o.Status}

	s := debugapi.New(logger, nil, "test")
	if !o.Unconfigured {
		s.Configure(l, roster, checker)
	}

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = s.Close() })

	client := &http.Client{
		Transport: web.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			u, err := url.Parse(ts.URL + r.URL.String())
			if err != nil {
				return nil, err
			}
			r.URL = u
			return ts.Client().Transport.RoundTrip(r)
		}),
	}
	return &testServer{
		Client:       client,
		URL:          ts.URL,
		Loader:       l,
		Entitlements: checker,
		Service:      s,
	}
}

type loaderMock struct {
	status loader.Status

	mu   sync.Mutex
	subs map[int]func(float64)
	next int
}

func (m *loaderMock) Status() loader.Status {
	return m.status
}

func (m *loaderMock) SubscribeProgress(fn func(fraction float64)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs == nil {
		m.subs = make(map[int]func(float64))
	}
	id := m.next
	m.next++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *loaderMock) Report(fraction float64) {
	m.mu.Lock()
	subs := make([]func(float64), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(fraction)
	}
}

func (m *loaderMock) subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *loaderMock) waitSubscribers(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < 200; i++ {
		if m.subscribers() == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("got %d progress subscribers, want %d", m.subscribers(), n)
}

func TestHealth(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{Unconfigured: true})

	jsonhttptest.Request(t, testServer.Client, http.MethodGet, "/health", http.StatusOK,
		jsonhttptest.WithExpectedJSONResponse(map[string]string{
			"status": "ok",
		}),
	)
}

func TestReadiness(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		testServer := newTestServer(t, testServerOptions{Unconfigured: true})

		jsonhttptest.Request(t, testServer.Client, http.MethodGet, "/readiness", http.StatusNotFound,
			jsonhttptest.WithExpectedJSONResponse(jsonhttp.StatusResponse{
				Message: http.StatusText(http.StatusNotFound),
				Code:    http.StatusNotFound,
			}),
		)
		jsonhttptest.Request(t, testServer.Client, http.MethodGet, "/loader", http.StatusNotFound)
	})

	t.Run("configured", func(t *testing.T) {
		testServer := newTestServer(t, testServerOptions{})

		jsonhttptest.Request(t, testServer.Client, http.MethodGet, "/readiness", http.StatusOK,
			jsonhttptest.WithExpectedJSONResponse(map[string]string{
				"status": "ok",
			}),
		)
	})
}

func TestMetrics(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{})

	resp, err := testServer.Client.Get("/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %v, want %v", resp.StatusCode, http.StatusOK)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `lobby_info{version="test"} 0`) {
		t.Errorf("info metric not found in %s", b)
	}
}
