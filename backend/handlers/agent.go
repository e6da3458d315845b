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
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/efchatnet/efcare/backend/agent"
	"github.com/efchatnet/efcare/backend/messenger"
)

// HealthChecker reports whether the text-generation service is
// reachable.
type HealthChecker interface {
	Health(ctx context.Context) agent.HealthStatus
}

type AgentHandler struct {
	svc    *messenger.Service
	health HealthChecker
}

// NewAgentHandler creates the handler. health may be nil when no bridge
// is configured.
func NewAgentHandler(svc *messenger.Service, health HealthChecker) *AgentHandler {
	return &AgentHandler{svc: svc, health: health}
}

type toggleAgentRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *AgentHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["conversationId"]
	if _, ok := participantConversation(w, r, h.svc, conversationID, userID); !ok {
		return
	}

	var req toggleAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	toggled, err := h.svc.ToggleAgent(r.Context(), conversationID, req.Enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: toggled})
}

func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	conversationID := mux.Vars(r)["conversationId"]
	if _, ok := participantConversation(w, r, h.svc, conversationID, userID); !ok {
		return
	}

	status, err := h.svc.GetAgentStatus(r.Context(), conversationID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Health answers 200 when the text-generation service is available and
// 503 otherwise.
func (h *AgentHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		writeJSON(w, http.StatusServiceUnavailable, agent.HealthStatus{Error: "agent bridge not configured"})
		return
	}

	status := h.health.Health(r.Context())
	code := http.StatusOK
	if !status.Available {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (h *AgentHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
