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

// Package handlers exposes the messenger service over HTTP/JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/efchatnet/efcare/backend/messenger"
	"github.com/efchatnet/efcare/backend/middleware"
	"github.com/efchatnet/efcare/backend/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}

// writeError maps service errors to HTTP statuses. Unexpected errors
// are logged and answered with a generic body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, messenger.ErrConversationNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, messenger.ErrKindMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, messenger.ErrNotParticipant):
		http.Error(w, "Not a participant", http.StatusForbidden)
	case errors.Is(err, messenger.ErrInvalidArgument):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

// participantConversation loads the conversation and answers 404 when
// it does not exist or userID is not one of its participants.
func participantConversation(w http.ResponseWriter, r *http.Request, svc *messenger.Service, conversationID, userID string) (*models.Conversation, bool) {
	conv, err := svc.GetConversation(r.Context(), conversationID)
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	if conv == nil || !conv.HasParticipant(userID) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return nil, false
	}
	return conv, true
}

type successResponse struct {
	Success bool `json:"success"`
}
