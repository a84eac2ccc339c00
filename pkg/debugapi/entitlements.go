// Copyright 2026 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ethersphere/lobby/pkg/content"
	"github.com/ethersphere/lobby/pkg/entitlement"
	"github.com/ethersphere/lobby/pkg/jsonhttp"
	"github.com/ethersphere/lobby/pkg/session"
)

const entitlementMaxRequestSize = 1024

type entitlementResponse struct {
	Peer    session.PeerID `json:"peer"`
	Content content.ID     `json:"content"`
	Status  string         `json:"status"`
}

type entitlementRequest struct {
	Status string `json:"status"`
}

func parseEntitlementVars(r *http.Request) (session.PeerID, content.ID, error) {
	id, err := content.ParseID(mux.Vars(r)["content"])
	if err != nil {
		return "", "", err
	}
	return session.PeerID(mux.Vars(r)["peer"]), id, nil
}

func (s *Service) getEntitlementHandler(w http.ResponseWriter, r *http.Request) {
	peer, id, err := parseEntitlementVars(r)
	if err != nil {
		s.logger.Debugf("debug api: entitlement: %v", err)
		jsonhttp.BadRequest(w, "invalid content id")
		return
	}

	jsonhttp.OK(w, entitlementResponse{
		Peer:    peer,
		Content: id,
		Status:  s.entitlements.Status(peer, id).String(),
	})
}

func (s *Service) setEntitlementHandler(w http.ResponseWriter, r *http.Request) {
	peer, id, err := parseEntitlementVars(r)
	if err != nil {
		s.logger.Debugf("debug api: set entitlement: %v", err)
		jsonhttp.BadRequest(w, "invalid content id")
		return
	}

	var req entitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if jsonhttp.HandleBodyReadError(err, w) {
			return
		}
		s.logger.Debugf("debug api: set entitlement: decode: %v", err)
		jsonhttp.BadRequest(w, "invalid request body")
		return
	}

	status, err := entitlement.ParseStatus(req.Status)
	if err != nil {
		s.logger.Debugf("debug api: set entitlement: %v", err)
		jsonhttp.BadRequest(w, "invalid status")
		return
	}

	if err := s.entitlements.Set(peer, id, status); err != nil {
		s.logger.Debugf("debug api: set entitlement %s %s: %v", peer, id, err)
		s.logger.Errorf("unable to set entitlement of peer %s", peer)
		jsonhttp.InternalServerError(w, nil)
		return
	}

	jsonhttp.OK(w, entitlementResponse{
		Peer:    peer,
		Content: id,
		Status:  status.String(),
	})
}
