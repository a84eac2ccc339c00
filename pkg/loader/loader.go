// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader synchronizes the loading of shared content across the
// peers of a session.
//
// A Loader drives the base machine of the round. BeginLoad starts a round
// and, when the content is not present locally, fetches it in the
// background. Tick advances the round and only lets it become Ready once
// every connected peer is entitled to the content. The preview and the
// characteristic of the round are assigned at that moment and not when
// the round starts.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/ethersphere/lobby/pkg/catalog"
	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/fetcher"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/machine"
	"github.com/ethersphere/lobby/pkg/session"
	"github.com/ethersphere/lobby/pkg/task"
	"github.com/ethersphere/lobby/pkg/tracing"
)

// ErrFetchFailed wraps the error of a failed content fetch.
var ErrFetchFailed = errors.New("loader: fetch failed")

type Options struct {
	// Source loads content for the base machine.
	Source   machine.Source
	Resolver catalog.Resolver
	Fetcher  fetcher.Interface
	Roster   session.Roster
	Oracle   entitlement.Oracle
	Logger   logging.Logger
	Tracer   *tracing.Tracer
	// AwaitFetch keeps a round from becoming Ready until its background
	// fetch installed the content. Without it the group may become Ready
	// while the content is still being fetched.
	AwaitFetch bool
}

type pendingFetch struct {
	id      content.ID
	round   string
	task    *task.Task[content.Handle]
	started time.Time
}

// Status is a point in time view of a Loader.
type Status struct {
	Round      string        `json:"round,omitempty"`
	State      machine.State `json:"-"`
	StateName  string        `json:"state"`
	Content    content.ID    `json:"content,omitempty"`
	Fetching   bool          `json:"fetching"`
	AwaitFetch bool          `json:"awaitFetch"`
	Err        string        `json:"error,omitempty"`
}

type Loader struct {
	machine    machine.Machine
	resolver   catalog.Resolver
	fetcher    fetcher.Interface
	roster     session.Roster
	oracle     entitlement.Oracle
	logger     logging.Logger
	tracer     *tracing.Tracer
	awaitFetch bool
	metrics    metrics

	ctx    context.Context
	cancel context.CancelFunc

	// waitStart and the stall flags are only touched by BeginLoad and Tick.
	waitStart    time.Time
	stallLogged  bool
	failedLogged bool

	// round is written by BeginLoad with mu held.
	mu      sync.Mutex
	round   string
	pending *pendingFetch
	err     error

	progressMu  sync.Mutex
	progressSub []*progressSub
}

type progressSub struct {
	fn func(fraction float64)
}

var _ fetcher.Progress = (*Loader)(nil)

// New returns a Loader with an Idle base machine.
func New(o Options) *Loader {
	ctx, cancel := context.WithCancel(context.Background())

	l := &Loader{
		resolver:   o.Resolver,
		fetcher:    o.Fetcher,
		roster:     o.Roster,
		oracle:     o.Oracle,
		logger:     o.Logger,
		tracer:     o.Tracer,
		awaitFetch: o.AwaitFetch,
		metrics:    newMetrics(),
		ctx:        ctx,
		cancel:     cancel,
	}

	// the preview and the characteristic are assigned once the group is
	// ready, never when the round starts
	deferAssignment := func(content.Descriptor) bool { return false }
	l.machine = machine.New(o.Source, o.Logger, machine.WithHooks(machine.Hooks{
		AssignPreview:        deferAssignment,
		AssignCharacteristic: deferAssignment,
	}))

	return l
}

// BeginLoad starts a new round for the request. It never blocks on the
// fetch. A fetch of a previous round that is still running is cancelled.
func (l *Loader) BeginLoad(r machine.Request) {
	id := r.Descriptor.ID
	round := uuid.NewString()
	logger := l.logger.WithFields(logrus.Fields{"round": round, "content": id})

	l.machine.Load(r)
	l.metrics.Loads.Inc()
	logger.Debugf("loading content %s", id)

	l.stallLogged = false
	l.failedLogged = false
	if l.machine.State() == machine.WaitingForGroupReady {
		l.waitStart = time.Now()
	}

	l.mu.Lock()
	prev := l.pending
	l.round = round
	l.pending = nil
	l.err = nil
	l.mu.Unlock()

	if prev != nil && !prev.task.Completed() {
		prev.task.Cancel()
		l.metrics.SupersededFetches.Inc()
		logger.Debugf("cancelled fetch of %s from round %s", prev.id, prev.round)
	}

	if !l.resolver.IsPresent(id) {
		p := &pendingFetch{id: id, round: round, started: time.Now()}
		p.task = task.Go(l.ctx, func(ctx context.Context) (content.Handle, error) {
			h, err := l.fetchAndResolve(ctx, round, id)
			if err != nil && !errors.Is(err, context.Canceled) {
				l.setErr(round, err)
			}
			return h, err
		})

		l.mu.Lock()
		l.pending = p
		l.mu.Unlock()

		l.metrics.FetchesStarted.Inc()
	}

	l.metrics.State.Set(float64(l.machine.State()))
}

// Tick advances the round by at most one state. It must not be called
// concurrently with itself or with BeginLoad.
func (l *Loader) Tick() {
	switch l.machine.State() {
	case machine.LoadingContent:
		l.machine.Tick()
		if l.machine.State() == machine.WaitingForGroupReady {
			l.waitStart = time.Now()
			l.logger.WithField("round", l.round).Debugf("loaded content %s", l.machine.Request().Descriptor.ID)
		}
	case machine.WaitingForGroupReady:
		d := l.machine.Request().Descriptor
		if !l.fetchSettled(d.ID) || !l.groupReady(d.ID) {
			return
		}
		l.assign(d)
		l.logger.WithField("round", l.round).Debugf("all peers finished loading %s", d.ID)
		l.machine.Tick()
		if !l.waitStart.IsZero() {
			l.metrics.GroupWaitDuration.Observe(time.Since(l.waitStart).Seconds())
		}
	default:
		l.machine.Tick()
	}

	l.metrics.State.Set(float64(l.machine.State()))
}

// groupReady reports whether every peer of one roster snapshot is entitled
// to the content, using cached entitlements only.
func (l *Loader) groupReady(id content.ID) bool {
	for _, peer := range l.roster.CurrentPeers() {
		if s := l.oracle.Status(peer, id); s != entitlement.StatusOK {
			if !l.stallLogged {
				l.logger.WithField("round", l.round).Debugf("waiting for peer %s: entitlement %s", peer, s)
				l.stallLogged = true
			}
			return false
		}
	}
	return true
}

// fetchSettled reports whether the round may become Ready as far as its
// background fetch is concerned.
func (l *Loader) fetchSettled(id content.ID) bool {
	if !l.awaitFetch {
		return true
	}

	l.mu.Lock()
	p := l.pending
	l.mu.Unlock()

	if p == nil {
		return true
	}
	_, done, err := p.task.Result()
	if !done {
		return false
	}
	if err != nil {
		if !l.failedLogged {
			l.logger.WithField("round", l.round).Warningf("content %s is not available: %v", id, err)
			l.failedLogged = true
		}
		return false
	}
	return true
}

// assign sets the preview and the characteristic that were deferred when
// the round started.
func (l *Loader) assign(d content.Descriptor) {
	p, err := l.resolver.Preview(d.ID)
	if err != nil {
		l.logger.Warningf("preview %s: %v", d.ID, err)
		return
	}
	l.machine.SetPreview(p)

	if c, ok := p.Characteristic(d.Characteristic); ok {
		l.machine.SetCharacteristic(c)
	} else {
		l.logger.Debugf("content %s has no characteristic %q", d.ID, d.Characteristic)
	}
}

// fetchAndResolve fetches the content and resolves its handle with the
// same context. A fetch failure is only fatal when the content can not be
// resolved afterwards.
func (l *Loader) fetchAndResolve(ctx context.Context, round string, id content.ID) (content.Handle, error) {
	span, logger, ctx := l.tracer.StartSpanFromContext(ctx, "loader-fetch", l.logger, opentracing.Tag{Key: "content", Value: string(id)})
	defer span.Finish()
	logger = logger.WithField("round", round)

	start := time.Now()
	var fetchErr error
	if err := l.fetcher.Fetch(ctx, id, l.roundProgress(round)); err != nil {
		fetchErr = fmt.Errorf("%w: %w", ErrFetchFailed, err)
		if !errors.Is(err, context.Canceled) {
			l.metrics.FetchFailures.Inc()
			logger.Warningf("fetch %s: %v", id, err)
		}
	} else {
		l.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}

	h, err := l.resolver.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debugf("fetch of %s cancelled", id)
			return content.Handle{}, err
		}
		if fetchErr != nil {
			return content.Handle{}, multierror.Append(fetchErr, err)
		}
		return content.Handle{}, fmt.Errorf("resolve %s: %w", id, err)
	}
	return h, nil
}

func (l *Loader) setErr(round string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.round == round {
		l.err = err
	}
}

// roundProgress republishes the progress of a fetch only while its round is
// the current one. A superseded fetch may still report before it notices the
// cancellation.
func (l *Loader) roundProgress(round string) fetcher.Progress {
	return fetcher.ProgressFunc(func(fraction float64) {
		l.mu.Lock()
		current := l.round == round
		l.mu.Unlock()
		if !current {
			l.metrics.DroppedProgress.Inc()
			return
		}
		l.Report(fraction)
	})
}

// Report implements fetcher.Progress. The fraction is republished to every
// progress subscriber as is.
func (l *Loader) Report(fraction float64) {
	l.progressMu.Lock()
	subs := make([]*progressSub, len(l.progressSub))
	copy(subs, l.progressSub)
	l.progressMu.Unlock()

	for _, s := range subs {
		s.fn(fraction)
	}
}

// SubscribeProgress calls fn with every reported progress fraction, in
// report order. Fractions reported before the subscription are not
// replayed.
func (l *Loader) SubscribeProgress(fn func(fraction float64)) (unsubscribe func()) {
	sub := &progressSub{fn: fn}

	l.progressMu.Lock()
	l.progressSub = append(l.progressSub, sub)
	l.progressMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.progressMu.Lock()
			defer l.progressMu.Unlock()
			for i, s := range l.progressSub {
				if s == sub {
					l.progressSub = append(l.progressSub[:i], l.progressSub[i+1:]...)
					break
				}
			}
		})
	}
}

func (l *Loader) State() machine.State {
	return l.machine.State()
}

// Request returns the request of the current round.
func (l *Loader) Request() machine.Request {
	return l.machine.Request()
}

func (l *Loader) Preview() content.Preview {
	return l.machine.Preview()
}

func (l *Loader) Characteristic() content.Characteristic {
	return l.machine.Characteristic()
}

// Handle returns the loaded content of the current round.
func (l *Loader) Handle() (content.Handle, bool) {
	return l.machine.Handle()
}

// Err returns the error of the background fetch of the current round.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Fetching reports whether the background fetch of the current round is
// running.
func (l *Loader) Fetching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending != nil && !l.pending.task.Completed()
}

func (l *Loader) Status() Status {
	s := l.machine.State()
	st := Status{
		State:      s,
		StateName:  s.String(),
		Content:    l.machine.Request().Descriptor.ID,
		AwaitFetch: l.awaitFetch,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	st.Round = l.round
	st.Fetching = l.pending != nil && !l.pending.task.Completed()
	if l.err != nil {
		st.Err = l.err.Error()
	}
	return st
}

// Close cancels the background fetch and waits for it to return.
func (l *Loader) Close() error {
	l.cancel()

	l.mu.Lock()
	p := l.pending
	l.mu.Unlock()

	if p != nil {
		<-p.task.Done()
	}
	return l.machine.Close()
}
