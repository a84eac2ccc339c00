// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package jsonhttp

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

// MethodHandler routes a request by its method. HEAD requests fall back to
// the GET handler. Any other method is answered with a JSON Method Not
// Allowed response that lists the allowed methods in the Allow header.
type MethodHandler map[string]http.Handler

func (h MethodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if handler, ok := h[r.Method]; ok {
		handler.ServeHTTP(w, r)
		return
	}
	if r.Method == http.MethodHead {
		if handler, ok := h[http.MethodGet]; ok {
			handler.ServeHTTP(w, r)
			return
		}
	}
	w.Header().Set("Allow", h.allow())
	MethodNotAllowed(w, nil)
}

func (h MethodHandler) allow() string {
	methods := make([]string, 0, len(h)+1)
	for m := range h {
		methods = append(methods, m)
	}
	if _, ok := h[http.MethodGet]; ok {
		if _, ok := h[http.MethodHead]; !ok {
			methods = append(methods, http.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	NotFound(w, nil)
}

// NewMaxBodyBytesHandler limits the request body to limit bytes. Requests
// that declare a longer body are rejected right away, the others fail while
// the body is read and HandleBodyReadError turns that into a Request Entity
// Too Large response.
func NewMaxBodyBytesHandler(limit int64) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				RequestEntityTooLarge(w, nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			h.ServeHTTP(w, r)
		})
	}
}

// HandleBodyReadError responds with Request Entity Too Large when err, or an
// error it wraps, comes from a body limited by NewMaxBodyBytesHandler. It
// writes nothing and returns false for any other error.
func HandleBodyReadError(err error, w http.ResponseWriter) (responded bool) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		RequestEntityTooLarge(w, nil)
		return true
	}
	return false
}
