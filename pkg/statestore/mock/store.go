// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mock provides an in-memory storage.StateStorer that behaves like
// the leveldb one: values are encoded the same way and Iterate visits the
// matching keys in ascending order over a snapshot, so the callback may
// modify the store.
package mock

import (
	"encoding"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/ethersphere/lobby/pkg/storage"
)

var _ storage.StateStorer = (*store)(nil)

type store struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewStateStore returns an empty in-memory storage.StateStorer.
func NewStateStore() storage.StateStorer {
	return &store{
		values: make(map[string][]byte),
	}
}

func (s *store) Get(key string, i interface{}) error {
	s.mu.RLock()
	data, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return storage.ErrNotFound
	}

	if u, ok := i.(encoding.BinaryUnmarshaler); ok {
		return u.UnmarshalBinary(data)
	}
	return json.Unmarshal(data, i)
}

func (s *store) Put(key string, i interface{}) error {
	data, err := encode(i)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.values[key] = data
	s.mu.Unlock()
	return nil
}

func encode(i interface{}) ([]byte, error) {
	if m, ok := i.(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	return json.Marshal(i)
}

func (s *store) Delete(key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}

type entry struct {
	key   string
	value []byte
}

func (s *store) Iterate(prefix string, iterFunc storage.StateIterFunc) error {
	s.mu.RLock()
	var entries []entry
	for k, v := range s.values {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, entry{key: k, value: append([]byte(nil), v...)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	for _, e := range entries {
		stop, err := iterFunc([]byte(e.key), e.value)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (s *store) Close() error {
	return nil
}
