// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package node

import (
	"context"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/loader"
	"github.com/ethersphere/lobby/pkg/machine"
	"github.com/ethersphere/lobby/pkg/scheduler"
)

type loadRequest struct {
	request machine.Request
	// done receives exactly one value: nil once the round is ready or
	// ErrSuperseded.
	done chan error
}

// frame is the per frame work of the lobby. Load requests are handed over
// to the scheduler goroutine so that BeginLoad and Tick never run
// concurrently.
type frame struct {
	loader   *loader.Loader
	onBegin  func(content.ID)
	requests chan *loadRequest
	current  *loadRequest
}

var _ scheduler.Ticker = (*frame)(nil)

func newFrame(l *loader.Loader, onBegin func(content.ID)) *frame {
	return &frame{
		loader:   l,
		onBegin:  onBegin,
		requests: make(chan *loadRequest),
	}
}

// submit blocks until the next frame picks up the request.
func (f *frame) submit(ctx, nodeCtx context.Context, r *loadRequest) error {
	select {
	case f.requests <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-nodeCtx.Done():
		return ErrShutdownInProgress
	}
}

func (f *frame) Tick() {
	select {
	case r := <-f.requests:
		if f.current != nil {
			f.current.done <- ErrSuperseded
		}
		f.current = r
		f.loader.BeginLoad(r.request)
		if f.onBegin != nil {
			f.onBegin(r.request.Descriptor.ID)
		}
	default:
	}

	f.loader.Tick()

	if f.current != nil && f.loader.State() == machine.Ready {
		f.current.done <- nil
		f.current = nil
	}
}
