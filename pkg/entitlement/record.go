// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package entitlement

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// record is the state store representation of a status.
type record struct {
	Status  Status `msgpack:"s"`
	Updated int64  `msgpack:"u"`
}

// rawRecord has no methods so that msgpack does not call back into
// record.MarshalBinary.
type rawRecord record

func newRecord(s Status) *record {
	return &record{Status: s, Updated: time.Now().Unix()}
}

func (r *record) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal((*rawRecord)(r))
}

func (r *record) UnmarshalBinary(data []byte) error {
	return msgpack.Unmarshal(data, (*rawRecord)(r))
}
