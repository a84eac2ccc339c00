// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/machine"
	"github.com/ethersphere/lobby/pkg/node"
	"github.com/ethersphere/lobby/pkg/session"
)

const (
	optionNameTimeout        = "timeout"
	optionNameCharacteristic = "characteristic"
	optionNameDifficulty     = "difficulty"
	optionNameModifiers      = "modifier"
	optionNamePeers          = "peer"
)

func (c *command) initLoadCmd() (err error) {
	cmd := &cobra.Command{
		Use:   "load <content-id>",
		Short: "Load content and wait until every peer is ready to play it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			id, err := content.ParseID(args[0])
			if err != nil {
				return fmt.Errorf("content id %q: %w", args[0], err)
			}

			logger, err := newLogger(cmd, c.config.GetString(optionNameVerbosity))
			if err != nil {
				return err
			}

			b, err := node.NewLobby(c.nodeOptions(logger))
			if err != nil {
				return fmt.Errorf("lobby: %w", err)
			}
			defer func() {
				if e := b.Shutdown(); e != nil {
					err = multierror.Append(err, fmt.Errorf("shutdown: %w", e))
				}
			}()

			for _, p := range c.config.GetStringSlice(optionNamePeers) {
				if err := b.Roster.Connected(session.PeerID(p)); err != nil {
					return fmt.Errorf("peer %q: %w", p, err)
				}
			}

			progress := newProgressPrinter(cmd.OutOrStdout())
			unsubscribe := b.Loader.SubscribeProgress(progress.report)
			defer unsubscribe()

			ctx, cancel := context.WithTimeout(cmd.Context(), c.config.GetDuration(optionNameTimeout))
			defer cancel()

			err = b.Load(ctx, machine.Request{
				Descriptor: content.Descriptor{
					ID:             id,
					Characteristic: c.config.GetString(optionNameCharacteristic),
					Difficulty:     c.config.GetString(optionNameDifficulty),
				},
				Modifiers: c.config.GetStringSlice(optionNameModifiers),
			})
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					if ferr := b.Loader.Err(); ferr != nil {
						err = multierror.Append(err, ferr)
					}
					return fmt.Errorf("%s not ready in state %s: %w", id, b.Loader.State(), err)
				}
				return err
			}

			progress.done(id)
			return nil
		},
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return c.config.BindPFlags(cmd.Flags())
		},
	}

	c.setAllFlags(cmd)
	cmd.Flags().Duration(optionNameTimeout, time.Minute, "time to wait for the group to become ready")
	cmd.Flags().String(optionNameCharacteristic, "Standard", "characteristic to play")
	cmd.Flags().String(optionNameDifficulty, "", "difficulty to play")
	cmd.Flags().StringSlice(optionNameModifiers, nil, "gameplay modifiers, can be repeated")
	cmd.Flags().StringSlice(optionNamePeers, nil, "peers connected to the session, can be repeated")

	c.root.AddCommand(cmd)
	return nil
}

// progressPrinter writes one progress line per report, or keeps rewriting a
// single line when the output is a terminal.
type progressPrinter struct {
	mu       sync.Mutex
	w        io.Writer
	terminal bool
	pending  bool
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	p := &progressPrinter{w: w}
	if f, ok := w.(*os.File); ok {
		p.terminal = term.IsTerminal(int(f.Fd()))
	}
	return p
}

func (p *progressPrinter) report(fraction float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.terminal {
		fmt.Fprintf(p.w, "\rprogress: %3.0f%%", fraction*100)
		p.pending = true
		return
	}
	fmt.Fprintf(p.w, "progress: %3.0f%%\n", fraction*100)
}

func (p *progressPrinter) done(id content.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pending {
		fmt.Fprintln(p.w)
		p.pending = false
	}
	fmt.Fprintf(p.w, "ready: %s\n", id)
}
