// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package content contains the notions shared by every component that
// names, describes or loads multiplayer content.
package content

import (
	"errors"
	"strings"
)

// CustomPrefix marks identifiers of downloadable content. Everything after
// the prefix is the content hash.
const CustomPrefix = "custom_level_"

var ErrInvalidID = errors.New("invalid content id")

// ID names a piece of content across all peers of a session. IDs compare by
// value.
type ID string

// NewCustomID returns the ID of downloadable content with the given hash.
func NewCustomID(hash string) ID {
	return ID(CustomPrefix + strings.ToUpper(hash))
}

// ParseID validates s and returns it as an ID. The hash of downloadable
// content is upper cased so that a parsed id equals the one NewCustomID
// returns for the same hash.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrInvalidID
	}
	if strings.HasPrefix(s, CustomPrefix) {
		hash := strings.TrimPrefix(s, CustomPrefix)
		if hash == "" || strings.ContainsAny(hash, `/\.`) {
			return "", ErrInvalidID
		}
		return NewCustomID(hash), nil
	}
	return ID(s), nil
}

// Hash returns the content hash of downloadable content. The second return
// value is false for built-in content, which has no hash and is never
// fetched.
func (id ID) Hash() (string, bool) {
	s := string(id)
	if !strings.HasPrefix(s, CustomPrefix) {
		return "", false
	}
	hash := strings.ToUpper(strings.TrimPrefix(s, CustomPrefix))
	if hash == "" {
		return "", false
	}
	return hash, true
}

// IsCustom reports whether the content is downloadable.
func (id ID) IsCustom() bool {
	_, ok := id.Hash()
	return ok
}

func (id ID) String() string {
	return string(id)
}

// Characteristic is a named play mode of a piece of content.
type Characteristic struct {
	Name string `json:"name"`
}

// DifficultySet groups the difficulties available for one characteristic.
type DifficultySet struct {
	Characteristic Characteristic `json:"characteristic"`
	Difficulties   []string       `json:"difficulties"`
}

// Preview is the metadata of a piece of content that is available without
// loading the content itself.
type Preview struct {
	ID   ID              `json:"id"`
	Name string          `json:"name"`
	Sets []DifficultySet `json:"sets"`
}

// Characteristic returns the characteristic of the preview with the given
// name.
func (p Preview) Characteristic(name string) (Characteristic, bool) {
	for _, s := range p.Sets {
		if s.Characteristic.Name == name {
			return s.Characteristic, true
		}
	}
	return Characteristic{}, false
}

// Descriptor is the content requested for a round: which content, in which
// characteristic and at which difficulty.
type Descriptor struct {
	ID             ID     `json:"id"`
	Characteristic string `json:"characteristic"`
	Difficulty     string `json:"difficulty"`
}

// Handle is a loadable piece of content.
type Handle struct {
	ID      ID      `json:"id"`
	Path    string  `json:"path,omitempty"`
	Size    int64   `json:"size"`
	Builtin bool    `json:"builtin,omitempty"`
	Preview Preview `json:"preview"`
}
