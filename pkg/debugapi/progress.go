// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	writeDeadline = 4 * time.Second // write deadline. should be smaller than the shutdown timeout on api close

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Progress values are dropped for clients that fall this far behind.
	progressBuffer = 64
)

type progressMessage struct {
	Progress float64 `json:"progress"`
}

func (s *Service) progressWsHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already responded
		s.logger.Debugf("debug api: progress ws: upgrade: %v", err)
		return
	}

	s.wsWg.Add(1)
	go s.pumpProgress(conn)
}

func (s *Service) pumpProgress(conn *websocket.Conn) {
	defer s.wsWg.Done()

	var (
		dataC  = make(chan float64, progressBuffer)
		gone   = make(chan struct{})
		wait   = pongWait
		ticker = time.NewTicker(pingPeriod)
		err    error
	)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	unsubscribe := s.loader.SubscribeProgress(func(fraction float64) {
		select {
		case dataC <- fraction:
		default:
		}
	})
	defer unsubscribe()

	// the reader notices the client going away, or going silent for longer
	// than it takes to answer a ping
	if err = conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		s.logger.Debugf("debug api: progress ws: set read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case f := <-dataC:
			err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err != nil {
				s.logger.Debugf("debug api: progress ws: set write deadline: %v", err)
				return
			}
			if err = conn.WriteJSON(progressMessage{Progress: f}); err != nil {
				s.logger.Debugf("debug api: progress ws: write: %v", err)
				return
			}
		case <-s.quit:
			// shutdown
			err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err != nil {
				s.logger.Debugf("debug api: progress ws: set write deadline: %v", err)
				return
			}
			err = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				s.logger.Debugf("debug api: progress ws: write close message: %v", err)
			}
			return
		case <-gone:
			// client gone
			return
		case <-ticker.C:
			err = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err != nil {
				s.logger.Debugf("debug api: progress ws: set write deadline: %v", err)
				return
			}
			if err = conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
