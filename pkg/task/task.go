// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package task runs a function in its own goroutine and keeps its result
// until somebody asks for it. Tasks can be polled without blocking, which
// is what tick driven callers need.
package task

import (
	"context"
	"sync"
)

// Task is a cancellable asynchronous computation of a value of type T.
type Task[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result T
	err    error
}

// Go starts fn in a new goroutine with a context derived from ctx that is
// cancelled by Cancel.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer cancel()

		v, err := fn(ctx)

		t.mu.Lock()
		t.result, t.err = v, err
		t.mu.Unlock()
	}()
	return t
}

// Done returns a channel that is closed when the task finished.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Completed reports whether the task finished, successfully or not.
func (t *Task[T]) Completed() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Result returns the value and the error of a completed task. The second
// return value is false while the task is still running.
func (t *Task[T]) Result() (v T, done bool, err error) {
	if !t.Completed() {
		return v, false, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, true, t.err
}

// Wait blocks until the task finished or ctx is done.
func (t *Task[T]) Wait(ctx context.Context) (v T, err error) {
	select {
	case <-t.done:
		v, _, err = t.Result()
		return v, err
	case <-ctx.Done():
		return v, ctx.Err()
	}
}

// Cancel cancels the context of the task. It does not wait for the task to
// return.
func (t *Task[T]) Cancel() {
	t.cancel()
}
