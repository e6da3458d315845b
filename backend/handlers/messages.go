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
	"strconv"

	"github.com/gorilla/mux"

	"github.com/efchatnet/efcare/backend/messenger"
	"github.com/efchatnet/efcare/backend/models"
)

type MessageHandler struct {
	svc *messenger.Service
}

func NewMessageHandler(svc *messenger.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

type sendOpaqueRequest struct {
	models.OpaquePayload
	MessageType models.MessageType `json:"message_type"`
	ReplyToID   string             `json:"reply_to_id"`
}

// SendOpaque relays an encrypted message in a human-pair conversation.
func (h *MessageHandler) SendOpaque(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req sendOpaqueRequest
	if !decodeBody(w, r, &req) {
		return
	}

	msg, err := h.svc.SendOpaque(r.Context(), mux.Vars(r)["conversationId"], userID, req.OpaquePayload, req.MessageType, req.ReplyToID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type sendPlainRequest struct {
	Text string `json:"text"`
}

// SendPlain stores the caller's text in an assisted conversation and
// returns the agent's reply when there is one.
func (h *MessageHandler) SendPlain(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req sendPlainRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.svc.SendPlain(r.Context(), mux.Vars(r)["conversationId"], userID, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// GetMessages pages backwards through the ledger with ?limit= and
// ?before=.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["conversationId"]
	if _, ok := participantConversation(w, r, h.svc, conversationID, userID); !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	msgs, err := h.svc.GetMessages(r.Context(), conversationID, limit, r.URL.Query().Get("before"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *MessageHandler) GetUndelivered(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	msgs, err := h.svc.GetUndelivered(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type markDeliveredRequest struct {
	MessageIDs []string `json:"message_ids"`
}

func (h *MessageHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req markDeliveredRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.MarkDelivered(r.Context(), userID, req.MessageIDs); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type markReadRequest struct {
	LastReadMessageID string `json:"last_read_message_id"`
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["conversationId"]
	if _, ok := participantConversation(w, r, h.svc, conversationID, userID); !ok {
		return
	}

	var req markReadRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.MarkRead(r.Context(), conversationID, userID, req.LastReadMessageID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Delete removes the caller's own message within the delete window.
// Refusals answer success=false.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.DeleteMessage(r.Context(), mux.Vars(r)["messageId"], userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: deleted})
}
