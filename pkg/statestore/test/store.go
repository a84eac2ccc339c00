// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package test holds the behaviour every storage.StateStorer
// implementation is expected to share.
package test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ethersphere/lobby/pkg/storage"
)

const (
	key1 = "entitlement_peer-a_custom_level_AB12" // stores the serialized type
	key2 = "roster_last"                          // stores a json array
)

type record struct {
	value           string
	marshalCalled   bool
	unmarshalCalled bool
}

func (r *record) MarshalBinary() (data []byte, err error) {
	r.marshalCalled = true
	return []byte(r.value), nil
}

func (r *record) UnmarshalBinary(data []byte) (err error) {
	r.value = string(data)
	r.unmarshalCalled = true
	return nil
}

// Run runs the shared StateStorer tests against stores created by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.StateStorer) {
	t.Helper()

	t.Run("put get", func(t *testing.T) {
		store := newStore(t)
		value1 := &record{value: "ok"}
		value2 := []string{"peer-a", "peer-b"}
		insertValues(t, store, value1, value2)
		testPersistedValues(t, store, value1, value2)
	})

	t.Run("not found", func(t *testing.T) {
		store := newStore(t)
		var v string
		if err := store.Get("missing", &v); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		if err := store.Put(key2, []string{"peer-a"}); err != nil {
			t.Fatal(err)
		}
		if err := store.Delete(key2); err != nil {
			t.Fatal(err)
		}
		var v []string
		if err := store.Get(key2, &v); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got error %v, want %v", err, storage.ErrNotFound)
		}
	})

	t.Run("iterate", func(t *testing.T) {
		testStoreIterator(t, newStore(t))
	})

	t.Run("iterate in key order", func(t *testing.T) {
		testStoreIteratorOrder(t, newStore(t))
	})

	t.Run("delete while iterating", func(t *testing.T) {
		testStoreIteratorDelete(t, newStore(t))
	})
}

// RunPersist checks that values survive closing and reopening a store kept in
// the same directory.
func RunPersist(t *testing.T, newStore func(t *testing.T, dir string) storage.StateStorer) {
	t.Helper()

	dir := t.TempDir()
	value1 := &record{value: "denied"}
	value2 := []string{"peer-c"}

	store := newStore(t, dir)
	insertValues(t, store, value1, value2)
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	persisted := newStore(t, dir)
	defer persisted.Close()

	testPersistedValues(t, persisted, value1, value2)
}

func insertValues(t *testing.T, store storage.StateStorer, value1 *record, value2 []string) {
	t.Helper()

	if err := store.Put(key1, value1); err != nil {
		t.Fatal(err)
	}
	if !value1.marshalCalled {
		t.Fatal("binaryMarshaller not called on serialized type")
	}
	if err := store.Put(key2, value2); err != nil {
		t.Fatal(err)
	}
}

func testPersistedValues(t *testing.T, store storage.StateStorer, value1 *record, value2 []string) {
	t.Helper()

	v := &record{}
	if err := store.Get(key1, v); err != nil {
		t.Fatal(err)
	}
	if !v.unmarshalCalled {
		t.Fatal("unmarshaler not called")
	}
	if v.value != value1.value {
		t.Fatalf("expected persisted to be %s but got %s", value1.value, v.value)
	}

	var s []string
	if err := store.Get(key2, &s); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(value2, s); diff != "" {
		t.Fatalf("deserialized data mismatch (-want +got):\n%s", diff)
	}
}

func testStoreIterator(t *testing.T, store storage.StateStorer) {
	t.Helper()

	storePrefix := "entitlement_"
	for k, v := range map[string]string{
		storePrefix + "key1": "value1",
		"key2":               "value2",
		storePrefix + "key3": "value3",
	} {
		if err := store.Put(k, v); err != nil {
			t.Fatal(err)
		}
	}

	entries := make(map[string]string)
	err := store.Iterate(storePrefix, func(key []byte, value []byte) (stop bool, err error) {
		var entry string
		if err := json.Unmarshal(value, &entry); err != nil {
			return true, err
		}
		entries[string(key)] = entry
		return false, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{"entitlement_key1": "value1", "entitlement_key3": "value3"}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("store entries mismatch (-want +got):\n%s", diff)
	}
}

func testStoreIteratorOrder(t *testing.T, store storage.StateStorer) {
	t.Helper()

	for _, k := range []string{"entitlement_c", "entitlement_a", "entitlement_b"} {
		if err := store.Put(k, k); err != nil {
			t.Fatal(err)
		}
	}

	var keys []string
	if err := store.Iterate("entitlement_", func(key, _ []byte) (bool, error) {
		keys = append(keys, string(key))
		return false, nil
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{"entitlement_a", "entitlement_b", "entitlement_c"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("iteration order mismatch (-want +got):\n%s", diff)
	}
}

func testStoreIteratorDelete(t *testing.T, store storage.StateStorer) {
	t.Helper()

	for _, k := range []string{"entitlement_peer-a/x", "entitlement_peer-a/y"} {
		if err := store.Put(k, k); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Iterate("entitlement_peer-a/", func(key, _ []byte) (bool, error) {
		return false, store.Delete(string(key))
	}); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := store.Iterate("entitlement_", func(_, _ []byte) (bool, error) {
		n++
		return false, nil
	}); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("got %d entries left, want none", n)
	}
}
