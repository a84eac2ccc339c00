// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ethersphere/lobby/pkg/debugapi"
)

type progressMessage struct {
	Progress float64 `json:"progress"`
}

func dialProgress(t *testing.T, testServer *testServer) *websocket.Conn {
	t.Helper()

	u := "ws" + strings.TrimPrefix(testServer.URL, "http") + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestProgressStream(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{})

	conn := dialProgress(t, testServer)
	testServer.Loader.waitSubscribers(t, 1)

	want := []float64{0, 0.25, 0.5, 1}
	for _, f := range want {
		testServer.Loader.Report(f)
	}

	for _, w := range want {
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
			t.Fatal(err)
		}
		var m progressMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatal(err)
		}
		if m.Progress != w {
			t.Errorf("got progress %v, want %v", m.Progress, w)
		}
	}
}

func TestProgressNoReplay(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{})

	// reported before anyone listens
	testServer.Loader.Report(0.5)

	conn := dialProgress(t, testServer)
	testServer.Loader.waitSubscribers(t, 1)

	testServer.Loader.Report(0.75)

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var m progressMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatal(err)
	}
	if m.Progress != 0.75 {
		t.Errorf("got progress %v, want %v", m.Progress, 0.75)
	}
}

func TestProgressClientGone(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{})

	conn := dialProgress(t, testServer)
	testServer.Loader.waitSubscribers(t, 1)

	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	testServer.Loader.waitSubscribers(t, 0)
}

func TestProgressServiceClose(t *testing.T) {
	testServer := newTestServer(t, testServerOptions{})

	conn := dialProgress(t, testServer)
	testServer.Loader.waitSubscribers(t, 1)

	if err := testServer.Service.Close(); err != nil {
		t.Fatal(err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Fatalf("got error %v, want close error", err)
	}
	if closeErr.Code != websocket.CloseNormalClosure {
		t.Errorf("got close code %d, want %d", closeErr.Code, websocket.CloseNormalClosure)
	}
	if got := testServer.Loader.subscribers(); got != 0 {
		t.Errorf("got %d progress subscribers, want none", got)
	}
}

func TestProgressKeepalive(t *testing.T) {
	t.Cleanup(debugapi.SetKeepalive(300*time.Millisecond, 100*time.Millisecond))

	t.Run("answering client", func(t *testing.T) {
		testServer := newTestServer(t, testServerOptions{})

		conn := dialProgress(t, testServer)
		testServer.Loader.waitSubscribers(t, 1)

		// reading lets the default ping handler answer with pongs
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		time.Sleep(time.Second)
		if got := testServer.Loader.subscribers(); got != 1 {
			t.Fatalf("got %d progress subscribers, want 1", got)
		}
	})

	t.Run("silent client", func(t *testing.T) {
		testServer := newTestServer(t, testServerOptions{})

		_ = dialProgress(t, testServer)
		testServer.Loader.waitSubscribers(t, 1)

		// pings are never answered, the stream is dropped
		testServer.Loader.waitSubscribers(t, 0)
	})
}
