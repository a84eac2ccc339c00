// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"context"
	"sync"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/fetcher"
)

var _ fetcher.Interface = (*Fetcher)(nil)

// Fetcher records fetch calls. A fetch waits for the gate (if any), reports
// the configured progress values and returns the configured error. Fetches
// cancelled while waiting for the gate are recorded as well.
type Fetcher struct {
	mu           sync.Mutex
	calls        []content.ID
	cancelled    []content.ID
	progress     []float64
	lateProgress []float64
	gate         <-chan struct{}
	err          error
	onFetch      func(id content.ID)
}

type Option func(*Fetcher)

func WithProgress(values ...float64) Option {
	return func(f *Fetcher) {
		f.progress = values
	}
}

// WithGate blocks every fetch until gate is closed or the fetch is
// cancelled.
func WithGate(gate <-chan struct{}) Option {
	return func(f *Fetcher) {
		f.gate = gate
	}
}

// WithLateProgress reports values from a fetch that was cancelled while
// waiting for the gate, before it returns.
func WithLateProgress(values ...float64) Option {
	return func(f *Fetcher) {
		f.lateProgress = values
	}
}

func WithError(err error) Option {
	return func(f *Fetcher) {
		f.err = err
	}
}

// WithOnFetch calls fn once a fetch succeeded, before it returns.
func WithOnFetch(fn func(id content.ID)) Option {
	return func(f *Fetcher) {
		f.onFetch = fn
	}
}

func New(opts ...Option) *Fetcher {
	f := new(Fetcher)
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Fetcher) Fetch(ctx context.Context, id content.ID, p fetcher.Progress) error {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			for _, v := range f.lateProgress {
				p.Report(v)
			}
			f.mu.Lock()
			f.cancelled = append(f.cancelled, id)
			f.mu.Unlock()
			return ctx.Err()
		}
	}

	for _, v := range f.progress {
		p.Report(v)
	}
	if f.err != nil {
		return f.err
	}
	if f.onFetch != nil {
		f.onFetch(id)
	}
	return nil
}

// Calls returns the ids of all fetches in call order.
func (f *Fetcher) Calls() []content.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]content.ID(nil), f.calls...)
}

// Cancelled returns the ids of the fetches whose context was cancelled before
// the gate opened.
func (f *Fetcher) Cancelled() []content.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]content.ID(nil), f.cancelled...)
}
