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
	"github.com/efchatnet/efcare/backend/models"
)

type KeyHandler struct {
	svc *messenger.Service
}

func NewKeyHandler(svc *messenger.Service) *KeyHandler {
	return &KeyHandler{svc: svc}
}

// RegisterKey stores the caller's new public key, revoking the previous
// one.
func (h *KeyHandler) RegisterKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var registration models.KeyRegistration
	if !decodeBody(w, r, &registration) {
		return
	}

	rec, err := h.svc.RegisterKey(r.Context(), userID, registration.PublicKey, registration.Fingerprint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *KeyHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	rec, err := h.svc.GetKey(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec == nil {
		http.Error(w, "No active key", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// KeyHistory returns the caller's own key records, revoked ones
// included.
func (h *KeyHandler) KeyHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	history, err := h.svc.KeyHistory(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
