// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package machine provides the base load state machine of a round.
//
// A round starts with Load, which remembers the request, assigns the
// preview and the characteristic of the requested content and starts
// loading the content. Every Tick advances the machine by at most one
// state: LoadingContent moves on once the content task finished and
// WaitingForGroupReady moves on unconditionally. Callers that need to gate
// or defer any of this compose with the machine and use Hooks.
package machine

import (
	"context"
	"sync"
	"time"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/task"
)

// State is the load state of a round.
type State int

const (
	Idle State = iota
	LoadingContent
	WaitingForGroupReady
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingContent:
		return "loading-content"
	case WaitingForGroupReady:
		return "waiting-for-group-ready"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Modifiers are gameplay modifiers of a round. The machine does not
// interpret them.
type Modifiers []string

// Request is what a round loads.
type Request struct {
	Descriptor  content.Descriptor `json:"descriptor"`
	Modifiers   Modifiers          `json:"modifiers,omitempty"`
	StartOffset time.Duration      `json:"startOffset"`
}

// Source provides content to the machine.
type Source interface {
	Preview(id content.ID) (content.Preview, error)
	// Loaded reports whether the content can be loaded without waiting.
	Loaded(id content.ID) bool
	// Load blocks until the content is loadable.
	Load(ctx context.Context, id content.ID) (content.Handle, error)
}

// Hooks are consulted by Load before the default assignments. A hook that
// returns false skips the assignment.
type Hooks struct {
	AssignPreview        func(d content.Descriptor) bool
	AssignCharacteristic func(d content.Descriptor) bool
}

type Machine interface {
	State() State
	Load(r Request)
	Tick()
	Request() Request
	Preview() content.Preview
	Characteristic() content.Characteristic
	SetPreview(p content.Preview)
	SetCharacteristic(c content.Characteristic)
	// Handle returns the loaded content once the content task finished.
	Handle() (content.Handle, bool)
	// Err returns the error of the content task of the current round.
	Err() error
	Close() error
}

type Option func(*machine)

func WithHooks(h Hooks) Option {
	return func(m *machine) {
		m.hooks = h
	}
}

var _ Machine = (*machine)(nil)

type machine struct {
	src    Source
	logger logging.Logger
	hooks  Hooks
	ctx    context.Context
	cancel context.CancelFunc

	mu             sync.Mutex
	state          State
	request        Request
	preview        content.Preview
	characteristic content.Characteristic
	task           *task.Task[content.Handle]
	handle         content.Handle
	loaded         bool
	err            error
}

// New returns an Idle machine that loads content from src.
func New(src Source, logger logging.Logger, opts ...Option) Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &machine{
		src:    src,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Load starts a new round. The content task of the previous round is
// cancelled.
func (m *machine) Load(r Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.task != nil {
		m.task.Cancel()
	}

	id := r.Descriptor.ID
	m.request = r
	m.preview = content.Preview{}
	m.characteristic = content.Characteristic{}
	m.handle = content.Handle{}
	m.loaded = false
	m.err = nil

	if m.hooks.AssignPreview == nil || m.hooks.AssignPreview(r.Descriptor) {
		if p, err := m.src.Preview(id); err != nil {
			m.logger.Debugf("machine: preview %s: %v", id, err)
		} else {
			m.preview = p
		}
	}
	if m.hooks.AssignCharacteristic == nil || m.hooks.AssignCharacteristic(r.Descriptor) {
		if c, ok := m.preview.Characteristic(r.Descriptor.Characteristic); ok {
			m.characteristic = c
		}
	}

	m.task = task.Go(m.ctx, func(ctx context.Context) (content.Handle, error) {
		return m.src.Load(ctx, id)
	})

	if m.src.Loaded(id) {
		m.state = WaitingForGroupReady
	} else {
		m.state = LoadingContent
	}
}

func (m *machine) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case LoadingContent:
		if !m.collect() {
			return
		}
		m.state = WaitingForGroupReady
	case WaitingForGroupReady:
		m.collect()
		m.state = Ready
	}
}

// collect stores the result of a finished content task and reports whether
// the task finished. It must be called with the lock held.
func (m *machine) collect() bool {
	if m.loaded {
		return true
	}
	if m.task == nil {
		return false
	}
	h, done, err := m.task.Result()
	if !done {
		return false
	}
	m.loaded = true
	if err != nil {
		m.err = err
		m.logger.Warningf("machine: load %s: %v", m.request.Descriptor.ID, err)
		return true
	}
	m.handle = h
	return true
}

func (m *machine) Request() Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.request
}

func (m *machine) Preview() content.Preview {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview
}

func (m *machine) Characteristic() content.Characteristic {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.characteristic
}

func (m *machine) SetPreview(p content.Preview) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preview = p
}

func (m *machine) SetCharacteristic(c content.Characteristic) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.characteristic = c
}

func (m *machine) Handle() (content.Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.collect() || m.err != nil {
		return content.Handle{}, false
	}
	return m.handle, true
}

func (m *machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Close cancels the content task and waits for it to return.
func (m *machine) Close() error {
	m.cancel()

	m.mu.Lock()
	t := m.task
	m.mu.Unlock()

	if t != nil {
		<-t.Done()
	}
	return nil
}
