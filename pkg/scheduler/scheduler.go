// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scheduler drives tick based components at a fixed frame rate.
package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/ethersphere/lobby/pkg/logging"
)

const DefaultFrameInterval = time.Second / 60

var ErrClosed = errors.New("scheduler: closed")

// Ticker is advanced once per frame.
type Ticker interface {
	Tick()
}

// TickerFunc adapts a function to the Ticker interface.
type TickerFunc func()

func (f TickerFunc) Tick() { f() }

// Scheduler calls Tick on every registered Ticker once per frame, in
// registration order, from a single goroutine.
type Scheduler struct {
	interval time.Duration
	logger   logging.Logger

	mu      sync.Mutex
	tickers []Ticker

	frames   uint64
	quit     chan struct{}
	wg       sync.WaitGroup
	closeMtx sync.Mutex
	closed   bool
}

// New starts a scheduler with the given frame interval.
func New(interval time.Duration, logger logging.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	s := &Scheduler{
		interval: interval,
		logger:   logger,
		quit:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

// Register adds a Ticker. It is first ticked on the next frame.
func (s *Scheduler) Register(t Ticker) error {
	s.closeMtx.Lock()
	defer s.closeMtx.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.mu.Lock()
	s.tickers = append(s.tickers, t)
	s.mu.Unlock()
	return nil
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			s.logger.Debugf("scheduler: stopped after %d frames", s.frames)
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		tickers := make([]Ticker, len(s.tickers))
		copy(tickers, s.tickers)
		s.mu.Unlock()

		for _, t := range tickers {
			t.Tick()
		}
		s.frames++
	}
}

// Close stops the scheduler and waits for the current frame to finish.
func (s *Scheduler) Close() error {
	s.closeMtx.Lock()
	if s.closed {
		s.closeMtx.Unlock()
		return nil
	}
	s.closed = true
	close(s.quit)
	s.closeMtx.Unlock()

	s.wg.Wait()
	return nil
}
