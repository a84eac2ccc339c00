// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import "time"

// SetKeepalive shortens the progress stream ping interval and pong timeout
// and returns a function that restores them.
func SetKeepalive(wait, period time.Duration) (restore func()) {
	prevWait, prevPeriod := pongWait, pingPeriod
	pongWait, pingPeriod = wait, period
	return func() {
		pongWait, pingPeriod = prevWait, prevPeriod
	}
}
