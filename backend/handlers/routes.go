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
	"github.com/gorilla/mux"

	"github.com/efchatnet/efcare/backend/messenger"
)

// Register adds the messenger endpoints to api. Authentication must
// already be applied to api.
func Register(api *mux.Router, svc *messenger.Service, health HealthChecker) {
	keys := NewKeyHandler(svc)
	conversations := NewConversationHandler(svc)
	messages := NewMessageHandler(svc)
	agents := NewAgentHandler(svc, health)

	// Key registry
	api.HandleFunc("/keys", keys.RegisterKey).Methods("POST", "OPTIONS")
	api.HandleFunc("/keys/history", keys.KeyHistory).Methods("GET", "OPTIONS")
	api.HandleFunc("/keys/{user_id}", keys.GetKey).Methods("GET", "OPTIONS")

	// Conversations
	api.HandleFunc("/clinicians", conversations.ListClinicians).Methods("GET", "OPTIONS")
	api.HandleFunc("/conversations", conversations.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/conversations/human", conversations.CreateHumanPair).Methods("POST", "OPTIONS")
	api.HandleFunc("/conversations/assisted", conversations.CreateAssisted).Methods("POST", "OPTIONS")
	api.HandleFunc("/conversations/{conversationId}", conversations.Get).Methods("GET", "OPTIONS")

	// Messages
	api.HandleFunc("/conversations/{conversationId}/messages", messages.GetMessages).Methods("GET", "OPTIONS")
	api.HandleFunc("/conversations/{conversationId}/messages/opaque", messages.SendOpaque).Methods("POST", "OPTIONS")
	api.HandleFunc("/conversations/{conversationId}/messages/plain", messages.SendPlain).Methods("POST", "OPTIONS")
	api.HandleFunc("/conversations/{conversationId}/read", messages.MarkRead).Methods("POST", "OPTIONS")
	api.HandleFunc("/messages/undelivered", messages.GetUndelivered).Methods("GET", "OPTIONS")
	api.HandleFunc("/messages/delivered", messages.MarkDelivered).Methods("POST", "OPTIONS")
	api.HandleFunc("/messages/{messageId}", messages.Delete).Methods("DELETE", "OPTIONS")

	// Agent
	api.HandleFunc("/conversations/{conversationId}/agent", agents.Status).Methods("GET", "OPTIONS")
	api.HandleFunc("/conversations/{conversationId}/agent", agents.Toggle).Methods("POST", "OPTIONS")
	api.HandleFunc("/agent/health", agents.Health).Methods("GET", "OPTIONS")
	api.HandleFunc("/stats", agents.Stats).Methods("GET", "OPTIONS")
}
