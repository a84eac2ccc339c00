// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fetcher downloads custom content from a content server and
// installs it locally, reporting fractional progress on the way.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/logging"
	"github.com/ethersphere/lobby/pkg/tracing"
)

var (
	ErrNotCustom        = errors.New("fetcher: only custom content can be fetched")
	ErrUnexpectedStatus = errors.New("fetcher: unexpected response status")
)

const (
	defaultConcurrency = 2
	defaultTimeout     = 5 * time.Minute
)

// Progress receives the fraction of a fetch that has completed, between 0
// and 1.
type Progress interface {
	Report(fraction float64)
}

// ProgressFunc adapts a function to the Progress interface.
type ProgressFunc func(fraction float64)

func (f ProgressFunc) Report(fraction float64) { f(fraction) }

// Interface downloads and installs content.
type Interface interface {
	Fetch(ctx context.Context, id content.ID, p Progress) error
}

// Installer stores fetched content locally.
type Installer interface {
	Install(id content.ID, p content.Preview, r io.Reader) (int64, error)
}

type Options struct {
	// Endpoint is the base URL of the content server.
	Endpoint string
	// Concurrency bounds the number of simultaneous downloads.
	Concurrency int64
	Client      *http.Client
	Tracer      *tracing.Tracer
}

var _ Interface = (*HTTP)(nil)

// HTTP fetches content over HTTP. The preview is served as JSON under
// {endpoint}/content/{hash}/preview and the content bytes under
// {endpoint}/content/{hash}.
type HTTP struct {
	endpoint  *url.URL
	client    *http.Client
	installer Installer
	sem       *semaphore.Weighted
	inflight  *atomic.Int64
	tracer    *tracing.Tracer
	logger    logging.Logger
	metrics   metrics
}

func New(installer Installer, logger logging.Logger, o Options) (*HTTP, error) {
	u, err := url.Parse(o.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("content endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("content endpoint %q: unsupported scheme", o.Endpoint)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: defaultTimeout}
	}

	return &HTTP{
		endpoint:  u,
		client:    o.Client,
		installer: installer,
		sem:       semaphore.NewWeighted(o.Concurrency),
		inflight:  atomic.NewInt64(0),
		tracer:    o.Tracer,
		logger:    logger,
		metrics:   newMetrics(),
	}, nil
}

// Fetch downloads the content and installs it. Progress is reported as 0
// before the download starts and as 1 once the content is installed.
func (f *HTTP) Fetch(ctx context.Context, id content.ID, p Progress) (err error) {
	hash, ok := id.Hash()
	if !ok {
		return ErrNotCustom
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer f.sem.Release(1)

	f.metrics.InFlight.Set(float64(f.inflight.Inc()))
	defer func() { f.metrics.InFlight.Set(float64(f.inflight.Dec())) }()

	span, logger, ctx := f.tracer.StartSpanFromContext(ctx, "fetch-content", f.logger, opentracing.Tag{Key: "content", Value: string(id)})
	defer span.Finish()

	start := time.Now()
	f.metrics.Fetches.Inc()
	defer func() {
		if err != nil {
			f.metrics.FetchErrors.Inc()
			return
		}
		f.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}()

	p.Report(0)

	preview, err := f.preview(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch preview %s: %w", id, err)
	}

	resp, err := f.get(ctx, f.url(hash))
	if err != nil {
		return fmt.Errorf("fetch %s: %w", id, err)
	}
	defer resp.Body.Close()

	r := &progressReader{r: resp.Body, total: resp.ContentLength, p: p}
	n, err := f.installer.Install(id, preview, r)
	if err != nil {
		return err
	}
	f.metrics.FetchedBytes.Add(float64(n))

	p.Report(1)
	logger.Debugf("fetcher: fetched %s (%d bytes)", id, n)
	return nil
}

func (f *HTTP) preview(ctx context.Context, hash string) (content.Preview, error) {
	resp, err := f.get(ctx, f.url(hash, "preview"))
	if err != nil {
		return content.Preview{}, err
	}
	defer resp.Body.Close()

	var p content.Preview
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return content.Preview{}, fmt.Errorf("decode: %w", err)
	}
	return p, nil
}

func (f *HTTP) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if err := f.tracer.AddContextHTTPHeader(ctx, req.Header); err != nil && !errors.Is(err, tracing.ErrContextNotFound) {
		f.logger.Debugf("fetcher: add tracing header: %v", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	return resp, nil
}

func (f *HTTP) url(elem ...string) string {
	return f.endpoint.JoinPath(append([]string{"content"}, elem...)...).String()
}

// progressReader reports the fraction of total read so far. Nothing is
// reported when the total is unknown.
type progressReader struct {
	r     io.Reader
	p     Progress
	total int64
	read  int64
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	if n > 0 && r.total > 0 {
		r.read += int64(n)
		if r.read < r.total {
			r.p.Report(float64(r.read) / float64(r.total))
		}
	}
	return n, err
}
