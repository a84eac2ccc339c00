// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package node wires the lobby components together: the content catalog
// and fetcher, the entitlement checker, the session roster, the loader
// driven by the frame scheduler, and the debug API.
package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/ethersphere/lobby/pkg/catalog"
	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/debugapi"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/fetcher"
	"github.com/ethersphere/lobby/pkg/loader"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/machine"
	"github.com/ethersphere/lobby/pkg/scheduler"
	"github.com/ethersphere/lobby/pkg/session"
	"github.com/ethersphere/lobby/pkg/statestore/leveldb"
	"github.com/ethersphere/lobby/pkg/storage"
	"github.com/ethersphere/lobby/pkg/tracing"
)

var (
	ErrShutdownInProgress = errors.New("shutdown in progress")
	// ErrSuperseded is returned by Load when a newer load replaced the
	// round before it became ready.
	ErrSuperseded = errors.New("load superseded")
)

type Lobby struct {
	Loader       *loader.Loader
	Roster       *session.Container
	Catalog      *catalog.Catalog
	Entitlements *entitlement.Checker

	ctx       context.Context
	ctxCancel context.CancelFunc
	logger    logging.Logger
	frame     *frame
	content   *atomic.String
	metrics   nodeMetrics

	debugAPIServer   *http.Server
	debugAPIService  *debugapi.Service
	errorLogWriter   io.Writer
	tracerCloser     io.Closer
	stateStoreCloser io.Closer
	schedulerCloser  io.Closer
	loaderCloser     io.Closer
	wg               sync.WaitGroup

	shutdownInProgress bool
	shutdownMutex      sync.Mutex
}

type Options struct {
	DataDir              string
	LocalPeer            string
	DebugAPIEnable       bool
	DebugAPIAddr         string        `validate:"required_if=DebugAPIEnable true"`
	DebugAPIMaxConns     int           `validate:"gte=0"`
	ContentEndpoint      string        `validate:"required,url"`
	FrameInterval        time.Duration `validate:"gte=0"`
	FetchConcurrency     int64         `validate:"gte=0"`
	EntitlementCacheSize int           `validate:"gte=0"`
	EntitlementRate      float64       `validate:"gte=0"`
	EntitlementBurst     int           `validate:"gte=0"`
	AwaitFetch           bool
	VerifyContent        bool
	Policy               []string
	Builtins             []content.Preview
	Logger               logging.Logger `validate:"required"`
	TracingEnabled       bool
	TracingEndpoint      string `validate:"required_if=TracingEnabled true"`
	TracingServiceName   string
	Version              string
}

// entitlementRequestLimit bounds the concurrent entitlement requests of one
// roster snapshot.
const entitlementRequestLimit = 4

func NewLobby(o *Options) (b *Lobby, err error) {
	if err := validator.New().Struct(o); err != nil {
		return nil, fmt.Errorf("options: %w", err)
	}
	logger := o.Logger

	tracer, tracerCloser, err := tracing.NewTracer(&tracing.Options{
		Enabled:     o.TracingEnabled,
		Endpoint:    o.TracingEndpoint,
		ServiceName: o.TracingServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("tracer: %w", err)
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	sink := writerFunc(func(p []byte) (int, error) {
		logger.Error(string(p))
		return len(p), nil
	})

	b = &Lobby{
		ctx:            ctx,
		ctxCancel:      ctxCancel,
		logger:         logger,
		content:        atomic.NewString(""),
		metrics:        newMetrics(),
		errorLogWriter: sink,
		tracerCloser:   tracerCloser,
	}

	defer func(b *Lobby) {
		if err != nil {
			logger.Errorf("got error, shutting down: %v", err)
			if err2 := b.Shutdown(); err2 != nil {
				logger.Errorf("got error while shutting down: %v", err2)
			}
		}
	}(b)

	var debugAPIService *debugapi.Service
	if o.DebugAPIEnable {
		// set up basic debug api endpoints for debugging and /health endpoint
		debugAPIService = debugapi.New(logger, tracer, o.Version)

		debugAPIListener, err := net.Listen("tcp", o.DebugAPIAddr)
		if err != nil {
			return nil, fmt.Errorf("debug api listener: %w", err)
		}
		// every progress stream holds a connection for as long as it lasts
		if o.DebugAPIMaxConns > 0 {
			debugAPIListener = netutil.LimitListener(debugAPIListener, o.DebugAPIMaxConns)
		}

		debugAPIServer := &http.Server{
			IdleTimeout:       30 * time.Second,
			ReadHeaderTimeout: 3 * time.Second,
			Handler:           debugAPIService,
			ErrorLog:          stdlog.New(b.errorLogWriter, "", 0),
		}

		go func() {
			logger.Infof("debug api address: %s", debugAPIListener.Addr())

			if err := debugAPIServer.Serve(debugAPIListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Debugf("debug api server: %v", err)
				logger.Error("unable to serve debug api")
			}
		}()

		b.debugAPIServer = debugAPIServer
		b.debugAPIService = debugAPIService
	}

	stateStore, err := InitStateStore(logger, o.DataDir)
	if err != nil {
		return nil, fmt.Errorf("statestore: %w", err)
	}
	b.stateStoreCloser = stateStore

	fs, err := initContentFs(logger, o.DataDir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}

	var catalogOpts []catalog.Option
	if o.VerifyContent {
		catalogOpts = append(catalogOpts, catalog.WithVerify())
	}
	cat, err := catalog.New(fs, logger, catalogOpts...)
	if err != nil {
		return nil, err
	}
	for _, p := range o.Builtins {
		if err := cat.RegisterBuiltin(p); err != nil {
			return nil, err
		}
	}
	b.Catalog = cat

	httpFetcher, err := fetcher.New(cat, logger, fetcher.Options{
		Endpoint:    o.ContentEndpoint,
		Concurrency: o.FetchConcurrency,
		Tracer:      tracer,
	})
	if err != nil {
		return nil, err
	}

	policy, err := entitlement.NewPolicyBackend()
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	if err := policy.AllowRules(o.Policy); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	checker, err := entitlement.NewChecker(policy, stateStore, logger, entitlement.Options{
		CacheSize:    o.EntitlementCacheSize,
		RequestRate:  o.EntitlementRate,
		RequestBurst: o.EntitlementBurst,
	})
	if err != nil {
		return nil, err
	}
	b.Entitlements = checker

	var rosterOpts []session.Option
	if o.LocalPeer != "" {
		rosterOpts = append(rosterOpts, session.WithLocalPeer(session.PeerID(o.LocalPeer)))
	}
	roster := session.NewContainer(rosterOpts...)
	b.Roster = roster

	l := loader.New(loader.Options{
		Source:     cat,
		Resolver:   cat,
		Fetcher:    httpFetcher,
		Roster:     roster,
		Oracle:     checker,
		Logger:     logger,
		Tracer:     tracer,
		AwaitFetch: o.AwaitFetch,
	})
	b.Loader = l
	b.loaderCloser = l

	b.frame = newFrame(l, b.beginLoad)

	sched := scheduler.New(o.FrameInterval, logger)
	b.schedulerCloser = sched
	if err := sched.Register(b.frame); err != nil {
		return nil, err
	}

	b.wg.Add(1)
	go b.watchRoster()

	if debugAPIService != nil {
		debugAPIService.MustRegisterMetrics(logger.Metrics()...)
		debugAPIService.MustRegisterMetrics(cat.Metrics()...)
		debugAPIService.MustRegisterMetrics(httpFetcher.Metrics()...)
		debugAPIService.MustRegisterMetrics(checker.Metrics()...)
		debugAPIService.MustRegisterMetrics(l.Metrics()...)
		debugAPIService.MustRegisterMetrics(b.metrics.collectors()...)

		// inject dependencies and configure full debug api http path routes
		debugAPIService.Configure(l, roster, checker)
	}

	return b, nil
}

// Load starts a round for the request and waits until the group is ready
// to play it.
func (b *Lobby) Load(ctx context.Context, r machine.Request) error {
	start := time.Now()
	req := &loadRequest{request: r, done: make(chan error, 1)}

	if err := b.frame.submit(ctx, b.ctx, req); err != nil {
		return err
	}

	select {
	case err := <-req.done:
		if err == nil {
			b.metrics.LoadDuration.Observe(time.Since(start).Seconds())
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-b.ctx.Done():
		return ErrShutdownInProgress
	}
}

// beginLoad runs on the scheduler goroutine right after the loader started
// a new round.
func (b *Lobby) beginLoad(id content.ID) {
	b.content.Store(string(id))
	b.metrics.Loads.Inc()
	b.requestEntitlements(b.Roster.CurrentPeers())
}

// requestEntitlements asks the policy about peers whose entitlement for the
// current content is not known yet.
func (b *Lobby) requestEntitlements(peers []session.PeerID) {
	id := content.ID(b.content.Load())
	if id == "" || len(peers) == 0 {
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		var eg errgroup.Group
		eg.SetLimit(entitlementRequestLimit)
		for _, peer := range peers {
			peer := peer
			eg.Go(func() error {
				if _, err := b.Entitlements.Request(b.ctx, peer, id); err != nil {
					return fmt.Errorf("peer %s: %w", peer, err)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warningf("entitlement request for %s: %v", id, err)
		}
	}()
}

// watchRoster forgets the entitlements of disconnected peers and asks for
// the entitlements of the ones that joined.
func (b *Lobby) watchRoster() {
	defer b.wg.Done()

	changed, unsubscribe := b.Roster.SubscribePeersChange()
	defer unsubscribe()

	known := make(map[session.PeerID]struct{})
	for _, p := range b.Roster.CurrentPeers() {
		known[p] = struct{}{}
	}

	for {
		select {
		case <-changed:
		case <-b.ctx.Done():
			return
		}

		current := make(map[session.PeerID]struct{})
		var joined []session.PeerID
		for _, p := range b.Roster.CurrentPeers() {
			current[p] = struct{}{}
			if _, ok := known[p]; !ok {
				joined = append(joined, p)
			}
		}
		for p := range known {
			if _, ok := current[p]; ok {
				continue
			}
			if err := b.Entitlements.Forget(p); err != nil {
				b.logger.Debugf("forget peer %s: %v", p, err)
				b.logger.Errorf("unable to forget entitlements of peer %s", p)
			}
		}
		known = current

		b.requestEntitlements(joined)
	}
}

func (b *Lobby) Shutdown() error {
	var mErr error

	// if a shutdown is already in process, return here
	b.shutdownMutex.Lock()
	if b.shutdownInProgress {
		b.shutdownMutex.Unlock()
		return ErrShutdownInProgress
	}
	b.shutdownInProgress = true
	b.shutdownMutex.Unlock()

	// tryClose is a convenient closure which decrease
	// repetitive io.Closer tryClose procedure.
	tryClose := func(c io.Closer, errMsg string) {
		if c == nil {
			return
		}
		if err := c.Close(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("%s: %w", errMsg, err))
		}
	}

	if b.debugAPIService != nil {
		tryClose(b.debugAPIService, "debug api")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var eg errgroup.Group
	if b.debugAPIServer != nil {
		eg.Go(func() error {
			if err := b.debugAPIServer.Shutdown(ctx); err != nil {
				return fmt.Errorf("debug api server: %w", err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		mErr = multierror.Append(mErr, err)
	}

	// the scheduler is stopped before the loader so that no tick runs
	// while the loader is closing
	tryClose(b.schedulerCloser, "scheduler")

	b.ctxCancel()
	b.wg.Wait()

	tryClose(b.loaderCloser, "loader")
	tryClose(b.tracerCloser, "tracer")
	tryClose(b.stateStoreCloser, "statestore")

	return mErr
}

func initContentFs(logger logging.Logger, dataDir string) (afero.Fs, error) {
	if dataDir == "" {
		logger.Warning("using in-mem content directory, fetched content will not be persisted")
		return afero.NewMemMapFs(), nil
	}

	dir := filepath.Join(dataDir, "content")
	if err := afero.NewOsFs().MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir), nil
}

// InitStateStore will initialize the stateStore with the given path to the
// data directory. When given an empty directory path, the function will instead
// initialize an in-memory state store that will not be persisted.
func InitStateStore(logger logging.Logger, dataDir string) (storage.StateStorer, error) {
	if dataDir == "" {
		logger.Warning("using in-mem state store, no node state will be persisted")
		s, err := leveldb.NewInMemoryStateStore(logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	s, err := leveldb.NewStateStore(filepath.Join(dataDir, "statestore"), logger)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) {
	return f(p)
}
