// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ethersphere/lobby/pkg/jsonhttp"
	"github.com/ethersphere/lobby/pkg/session"
)

func (s *Service) loaderHandler(w http.ResponseWriter, _ *http.Request) {
	jsonhttp.OK(w, s.loader.Status())
}

type peersResponse struct {
	Peers []session.PeerID `json:"peers"`
}

func (s *Service) peersHandler(w http.ResponseWriter, _ *http.Request) {
	peers := s.roster.CurrentPeers()
	if peers == nil {
		peers = []session.PeerID{}
	}
	jsonhttp.OK(w, peersResponse{
		Peers: peers,
	})
}

func (s *Service) peerConnectHandler(w http.ResponseWriter, r *http.Request) {
	peer := session.PeerID(mux.Vars(r)["peer"])
	if err := s.roster.Connected(peer); err != nil {
		s.logger.Debugf("debug api: connect peer %q: %v", peer, err)
		if errors.Is(err, session.ErrInvalidPeer) {
			jsonhttp.BadRequest(w, "invalid peer")
			return
		}
		s.logger.Errorf("unable to connect peer %s", peer)
		jsonhttp.InternalServerError(w, nil)
		return
	}
	jsonhttp.OK(w, nil)
}

func (s *Service) peerDisconnectHandler(w http.ResponseWriter, r *http.Request) {
	s.roster.Disconnected(session.PeerID(mux.Vars(r)["peer"]))
	jsonhttp.OK(w, nil)
}
