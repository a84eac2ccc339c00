// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethersphere/lobby/pkg/jsonhttp"
)

func TestRespond(t *testing.T) {
	for _, tc := range []struct {
		name        string
		code        int
		response    interface{}
		wantCode    int
		wantMessage string
	}{
		{name: "nil", code: http.StatusNotFound, wantCode: http.StatusNotFound, wantMessage: "Not Found"},
		{name: "zero code", wantCode: http.StatusOK, wantMessage: "OK"},
		{name: "string", code: http.StatusBadRequest, response: "invalid peer", wantCode: http.StatusBadRequest, wantMessage: "invalid peer"},
		{name: "error", code: http.StatusInternalServerError, response: errors.New("broken"), wantCode: http.StatusInternalServerError, wantMessage: "broken"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			jsonhttp.Respond(w, tc.code, tc.response)

			if got := w.Result().StatusCode; got != tc.wantCode {
				t.Errorf("got status code %d, want %d", got, tc.wantCode)
			}
			if got := w.Header().Get("Content-Type"); got != jsonhttp.DefaultContentTypeHeader {
				t.Errorf("got content type %q, want %q", got, jsonhttp.DefaultContentTypeHeader)
			}

			var m jsonhttp.StatusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
				t.Fatal(err)
			}
			if m.Code != tc.wantCode {
				t.Errorf("got message code %d, want %d", m.Code, tc.wantCode)
			}
			if m.Message != tc.wantMessage {
				t.Errorf("got message %q, want %q", m.Message, tc.wantMessage)
			}
		})
	}
}

func TestRespondValue(t *testing.T) {
	w := httptest.NewRecorder()

	jsonhttp.OK(w, struct {
		State string `json:"state"`
	}{State: "<ready>"})

	// html is not escaped
	if got, want := w.Body.String(), `{"state":"<ready>"}`+"\n"; got != want {
		t.Fatalf("got body %q, want %q", got, want)
	}
}
