// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import "context"

// WaitFetch waits for the background fetch of the current round.
func (l *Loader) WaitFetch(ctx context.Context) error {
	l.mu.Lock()
	p := l.pending
	l.mu.Unlock()

	if p == nil {
		return nil
	}
	_, err := p.task.Wait(ctx)
	return err
}
