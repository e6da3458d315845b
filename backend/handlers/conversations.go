// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/efchatnet/efcare/backend/messenger"
)

type ConversationHandler struct {
	svc *messenger.Service
}

func NewConversationHandler(svc *messenger.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type createHumanPairRequest struct {
	ClinicianID   string `json:"clinician_id"`
	ClinicianName string `json:"clinician_name"`
	Specialty     string `json:"specialty"`
}

// CreateHumanPair opens (or returns) the caller's encrypted conversation
// with a clinician.
func (h *ConversationHandler) CreateHumanPair(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createHumanPairRequest
	if !decodeBody(w, r, &req) {
		return
	}

	conv, err := h.svc.CreateHumanPair(r.Context(), userID, req.ClinicianID, req.ClinicianName, req.Specialty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

type createAssistedRequest struct {
	Model string `json:"model"`
}

// CreateAssisted opens (or returns) the caller's conversation with the
// agent. The body is optional.
func (h *ConversationHandler) CreateAssisted(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req createAssistedRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	conv, err := h.svc.CreateAssisted(r.Context(), userID, req.Model)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	convs, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	conv, ok := participantConversation(w, r, h.svc, mux.Vars(r)["conversationId"], userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) ListClinicians(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ListClinicians())
}
