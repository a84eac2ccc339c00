// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethersphere/lobby/pkg/jsonhttp"
)

func TestMethodHandler(t *testing.T) {
	h := jsonhttp.MethodHandler{
		"POST": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, err := io.ReadAll(r.Body)
			if err != nil {
				t.Fatal(err)
			}
			fmt.Fprint(w, "got: ", string(got))
		}),
	}

	t.Run("method allowed", func(t *testing.T) {
		body := "test body"

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		statusCode := w.Result().StatusCode
		if statusCode != http.StatusOK {
			t.Errorf("got status code %d, want %d", statusCode, http.StatusOK)
		}

		wantBody := "got: " + body
		gotBody := w.Body.String()

		if gotBody != wantBody {
			t.Errorf("got body %q, want %q", gotBody, wantBody)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		statusCode := w.Result().StatusCode
		wantCode := http.StatusMethodNotAllowed
		if statusCode != wantCode {
			t.Errorf("got status code %d, want %d", statusCode, wantCode)
		}

		var m *jsonhttp.StatusResponse

		if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
			t.Errorf("json unmarshal response body: %s", err)
		}

		if m.Code != wantCode {
			t.Errorf("got message code %d, want %d", m.Code, wantCode)
		}

		wantMessage := http.StatusText(wantCode)
		if m.Message != wantMessage {
			t.Errorf("got message message %q, want %q", m.Message, wantMessage)
		}

		if got, want := w.Header().Get("Allow"), "POST"; got != want {
			t.Errorf("got allow header %q, want %q", got, want)
		}
	})
}

func TestMethodHandlerHead(t *testing.T) {
	h := jsonhttp.MethodHandler{
		"GET": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jsonhttp.OK(w, nil)
		}),
		"PUT": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jsonhttp.OK(w, nil)
		}),
	}

	r := httptest.NewRequest(http.MethodHead, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Result().StatusCode; got != http.StatusOK {
		t.Errorf("head: got status code %d, want %d", got, http.StatusOK)
	}

	r = httptest.NewRequest(http.MethodDelete, "/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Result().StatusCode; got != http.StatusMethodNotAllowed {
		t.Errorf("delete: got status code %d, want %d", got, http.StatusMethodNotAllowed)
	}
	if got, want := w.Header().Get("Allow"), "GET, HEAD, PUT"; got != want {
		t.Errorf("got allow header %q, want %q", got, want)
	}
}

func TestNotFoundHandler(t *testing.T) {
	w := httptest.NewRecorder()

	jsonhttp.NotFoundHandler(w, nil)

	statusCode := w.Result().StatusCode
	wantCode := http.StatusNotFound
	if statusCode != wantCode {
		t.Errorf("got status code %d, want %d", statusCode, wantCode)
	}

	var m *jsonhttp.StatusResponse

	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Errorf("json unmarshal response body: %s", err)
	}

	if m.Code != wantCode {
		t.Errorf("got message code %d, want %d", m.Code, wantCode)
	}

	wantMessage := http.StatusText(wantCode)
	if m.Message != wantMessage {
		t.Errorf("got message message %q, want %q", m.Message, wantMessage)
	}
}

func TestNewMaxBodyBytesHandler(t *testing.T) {
	var limit int64 = 10

	h := jsonhttp.NewMaxBodyBytesHandler(limit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := io.ReadAll(r.Body)
		if err != nil {
			if jsonhttp.HandleBodyReadError(err, w) {
				return
			}
			jsonhttp.InternalServerError(w, nil)
			return
		}
		jsonhttp.OK(w, nil)
	}))

	for _, tc := range []struct {
		name          string
		body          string
		withoutLength bool
		wantCode      int
	}{
		{name: "empty", wantCode: http.StatusOK},
		{name: "within limit", body: "data", wantCode: http.StatusOK},
		{name: "over limit", body: "long long data", wantCode: http.StatusRequestEntityTooLarge},
		{name: "over limit without content length", body: "long long data", withoutLength: true, wantCode: http.StatusRequestEntityTooLarge},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			if tc.withoutLength {
				r.ContentLength = -1
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, r)

			if got := w.Result().StatusCode; got != tc.wantCode {
				t.Errorf("got status code %d, want %d", got, tc.wantCode)
			}
		})
	}
}

func TestHandleBodyReadError(t *testing.T) {
	for _, tc := range []struct {
		name          string
		err           error
		wantResponded bool
	}{
		{name: "nil"},
		{name: "other", err: io.ErrUnexpectedEOF},
		{name: "too large", err: &http.MaxBytesError{Limit: 10}, wantResponded: true},
		{name: "wrapped", err: fmt.Errorf("decode entitlement: %w", &http.MaxBytesError{Limit: 10}), wantResponded: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			if got := jsonhttp.HandleBodyReadError(tc.err, w); got != tc.wantResponded {
				t.Fatalf("got responded %v, want %v", got, tc.wantResponded)
			}
			if tc.wantResponded && w.Code != http.StatusRequestEntityTooLarge {
				t.Errorf("got status code %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
			}
		})
	}
}
