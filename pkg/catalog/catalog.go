// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package catalog keeps track of the content that is available locally.
//
// Built-in content is always present. Custom content lives on the file
// system, one directory per content hash holding the preview and the
// content bytes:
//
//	<hash>/preview.json
//	<hash>/content
//
// Content is present once its content file exists. Install writes the
// preview first and moves the content file into place last. With
// verification enabled the content bytes must hash to the content hash
// (hex encoded Keccak-256) or the content file is discarded.
package catalog

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
	"golang.org/x/crypto/sha3"
	"resenje.org/singleflight"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/logging"
)

var (
	ErrNotFound = errors.New("catalog: content not found")
	ErrBuiltin  = errors.New("catalog: built-in content cannot be installed")
	// ErrHashMismatch is returned by Install when verification is enabled
	// and the content does not hash to its content hash.
	ErrHashMismatch = errors.New("catalog: content hash mismatch")
)

const (
	previewFile      = "preview.json"
	contentFile      = "content"
	defaultCacheSize = 64
)

// Resolver answers whether content is present and materializes loadable
// handles for present content.
type Resolver interface {
	IsPresent(id content.ID) bool
	Preview(id content.ID) (content.Preview, error)
	Resolve(ctx context.Context, id content.ID) (content.Handle, error)
}

var _ Resolver = (*Catalog)(nil)

type Catalog struct {
	fs      afero.Fs
	logger  logging.Logger
	handles *lru.Cache[content.ID, content.Handle]
	flight  singleflight.Group[content.ID, content.Handle]
	metrics metrics
	verify  bool

	mu         sync.Mutex
	builtins   map[content.ID]content.Preview
	installSig map[content.ID][]chan struct{}
}

type Option func(*options)

type options struct {
	cacheSize int
	verify    bool
}

// WithCacheSize sets the number of resolved handles kept in memory.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// WithVerify makes Install reject content whose bytes do not hash to the
// content hash.
func WithVerify() Option {
	return func(o *options) {
		o.verify = true
	}
}

// New returns a Catalog on top of fs.
func New(fs afero.Fs, logger logging.Logger, opts ...Option) (*Catalog, error) {
	o := options{cacheSize: defaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	handles, err := lru.New[content.ID, content.Handle](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("catalog cache: %w", err)
	}

	return &Catalog{
		fs:         fs,
		logger:     logger,
		handles:    handles,
		metrics:    newMetrics(),
		verify:     o.verify,
		builtins:   make(map[content.ID]content.Preview),
		installSig: make(map[content.ID][]chan struct{}),
	}, nil
}

// RegisterBuiltin makes the preview of built-in content known.
func (c *Catalog) RegisterBuiltin(p content.Preview) error {
	if p.ID == "" || p.ID.IsCustom() {
		return fmt.Errorf("register %q: %w", p.ID, content.ErrInvalidID)
	}

	c.mu.Lock()
	c.builtins[p.ID] = p
	c.mu.Unlock()

	c.handles.Remove(p.ID)
	return nil
}

// IsPresent reports whether the content can be resolved without fetching it.
// Lookup errors are logged and reported as absent.
func (c *Catalog) IsPresent(id content.ID) bool {
	hash, ok := id.Hash()
	if !ok {
		return true
	}

	if _, err := c.fs.Stat(path.Join(hash, contentFile)); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debugf("catalog: stat %s: %v", id, err)
		}
		return false
	}
	return true
}

// Loaded reports whether a handle for the content is available right away.
func (c *Catalog) Loaded(id content.ID) bool {
	if c.handles.Contains(id) {
		return true
	}
	return c.IsPresent(id)
}

// Preview returns the preview of present content.
func (c *Catalog) Preview(id content.ID) (content.Preview, error) {
	hash, ok := id.Hash()
	if !ok {
		c.mu.Lock()
		p, ok := c.builtins[id]
		c.mu.Unlock()
		if !ok {
			p = content.Preview{ID: id, Name: string(id)}
		}
		return p, nil
	}

	f, err := c.fs.Open(path.Join(hash, previewFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return content.Preview{}, ErrNotFound
		}
		return content.Preview{}, fmt.Errorf("open preview %s: %w", id, err)
	}
	defer f.Close()

	var p content.Preview
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return content.Preview{}, fmt.Errorf("decode preview %s: %w", id, err)
	}
	p.ID = id
	return p, nil
}

// Resolve returns the loadable handle of present content. Concurrent calls
// for the same content share the work.
func (c *Catalog) Resolve(ctx context.Context, id content.ID) (content.Handle, error) {
	if err := ctx.Err(); err != nil {
		return content.Handle{}, err
	}
	if h, ok := c.handles.Get(id); ok {
		c.metrics.CacheHits.Inc()
		return h, nil
	}
	c.metrics.CacheMisses.Inc()

	h, _, err := c.flight.Do(ctx, id, func(ctx context.Context) (content.Handle, error) {
		h, err := c.handle(id)
		if err != nil {
			return content.Handle{}, err
		}
		c.handles.Add(id, h)
		return h, nil
	})
	return h, err
}

func (c *Catalog) handle(id content.ID) (content.Handle, error) {
	p, err := c.Preview(id)
	if err != nil {
		return content.Handle{}, err
	}

	hash, ok := id.Hash()
	if !ok {
		return content.Handle{ID: id, Builtin: true, Preview: p}, nil
	}

	name := path.Join(hash, contentFile)
	fi, err := c.fs.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return content.Handle{}, ErrNotFound
		}
		return content.Handle{}, fmt.Errorf("stat %s: %w", id, err)
	}

	return content.Handle{ID: id, Path: name, Size: fi.Size(), Preview: p}, nil
}

// Load waits until the content is present and returns its handle.
func (c *Catalog) Load(ctx context.Context, id content.ID) (content.Handle, error) {
	installed, unsubscribe := c.subscribeInstall(id)
	defer unsubscribe()

	for !c.IsPresent(id) {
		select {
		case <-installed:
		case <-ctx.Done():
			return content.Handle{}, ctx.Err()
		}
	}
	return c.Resolve(ctx, id)
}

// Install stores custom content read from r under the given preview and
// returns the number of content bytes written.
func (c *Catalog) Install(id content.ID, p content.Preview, r io.Reader) (n int64, err error) {
	hash, ok := id.Hash()
	if !ok {
		return 0, ErrBuiltin
	}

	if err := c.fs.MkdirAll(hash, 0o755); err != nil {
		return 0, fmt.Errorf("install %s: %w", id, err)
	}

	p.ID = id
	data, err := json.Marshal(p)
	if err != nil {
		return 0, fmt.Errorf("encode preview %s: %w", id, err)
	}
	if err := afero.WriteFile(c.fs, path.Join(hash, previewFile), data, 0o644); err != nil {
		return 0, fmt.Errorf("write preview %s: %w", id, err)
	}

	tmp := path.Join(hash, contentFile+".tmp")
	f, err := c.fs.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", id, err)
	}
	h := sha3.NewLegacyKeccak256()
	n, err = io.Copy(f, io.TeeReader(r, h))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = c.fs.Remove(tmp)
		return 0, fmt.Errorf("write %s: %w", id, err)
	}
	digest := hex.EncodeToString(h.Sum(nil))
	if c.verify && !strings.EqualFold(digest, hash) {
		_ = c.fs.Remove(tmp)
		c.metrics.HashMismatches.Inc()
		return 0, fmt.Errorf("%w: %s has digest %s", ErrHashMismatch, id, digest)
	}
	if err := c.fs.Rename(tmp, path.Join(hash, contentFile)); err != nil {
		return 0, fmt.Errorf("install %s: %w", id, err)
	}

	c.handles.Remove(id)
	c.metrics.Installs.Inc()
	c.metrics.InstalledBytes.Add(float64(n))
	c.notifyInstalled(id)

	c.logger.Debugf("catalog: installed %s (%d bytes, keccak256 %s)", id, n, digest)
	return n, nil
}

func (c *Catalog) subscribeInstall(id content.ID) (ch <-chan struct{}, unsubscribe func()) {
	channel := make(chan struct{}, 1)
	var closeOnce sync.Once

	c.mu.Lock()
	defer c.mu.Unlock()

	c.installSig[id] = append(c.installSig[id], channel)

	unsubscribe = func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		subs := c.installSig[id]
		for i, s := range subs {
			if s == channel {
				subs = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(c.installSig, id)
		} else {
			c.installSig[id] = subs
		}

		closeOnce.Do(func() { close(channel) })
	}

	return channel, unsubscribe
}

func (c *Catalog) notifyInstalled(id content.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.installSig[id] {
		select {
		case s <- struct{}{}:
		default:
		}
	}
}
