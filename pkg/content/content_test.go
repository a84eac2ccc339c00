// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package content_test

import (
	"errors"
	"testing"

	"github.com/ethersphere/lobby/pkg/content"
)

func TestIDHash(t *testing.T) {
	for _, tc := range []struct {
		id       content.ID
		wantHash string
		wantOK   bool
	}{
		{id: "custom_level_ab12", wantHash: "AB12", wantOK: true},
		{id: content.NewCustomID("ff00"), wantHash: "FF00", wantOK: true},
		{id: "custom_level_"},
		{id: "100Bills"},
	} {
		t.Run(string(tc.id), func(t *testing.T) {
			hash, ok := tc.id.Hash()
			if ok != tc.wantOK {
				t.Fatalf("got ok %v, want %v", ok, tc.wantOK)
			}
			if hash != tc.wantHash {
				t.Errorf("got hash %q, want %q", hash, tc.wantHash)
			}
			if tc.id.IsCustom() != tc.wantOK {
				t.Errorf("got custom %v, want %v", tc.id.IsCustom(), tc.wantOK)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	if _, err := content.ParseID("  "); !errors.Is(err, content.ErrInvalidID) {
		t.Errorf("got error %v, want %v", err, content.ErrInvalidID)
	}
	if _, err := content.ParseID("custom_level_../etc"); !errors.Is(err, content.ErrInvalidID) {
		t.Errorf("got error %v, want %v", err, content.ErrInvalidID)
	}
	id, err := content.ParseID(" custom_level_AB12 ")
	if err != nil {
		t.Fatal(err)
	}
	if id != "custom_level_AB12" {
		t.Errorf("got %q", id)
	}
}

func TestParseIDCase(t *testing.T) {
	id, err := content.ParseID("custom_level_ab12")
	if err != nil {
		t.Fatal(err)
	}
	if want := content.NewCustomID("AB12"); id != want {
		t.Errorf("got %q, want %q", id, want)
	}

	// built-in ids are kept as they are
	id, err = content.ParseID("Level1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "Level1" {
		t.Errorf("got %q, want %q", id, "Level1")
	}
}

func TestPreviewCharacteristic(t *testing.T) {
	p := content.Preview{
		ID: "custom_level_AB12",
		Sets: []content.DifficultySet{
			{Characteristic: content.Characteristic{Name: "Standard"}},
			{Characteristic: content.Characteristic{Name: "OneSaber"}},
		},
	}

	c, ok := p.Characteristic("OneSaber")
	if !ok || c.Name != "OneSaber" {
		t.Errorf("got %v %v, want OneSaber", c, ok)
	}
	if _, ok := p.Characteristic("Lawless"); ok {
		t.Error("found characteristic that is not in the preview")
	}
}
