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

package models

import "time"

// AgentStatus is the gating state of a conversation as seen by clients.
type AgentStatus struct {
	Active              bool       `json:"active"`
	LastHumanResponseAt *time.Time `json:"last_human_response_at,omitempty"`
	IsAssisted          bool       `json:"is_assisted"`
}

// SendResult is returned by a plain send: the caller's stored message
// plus the agent's reply when one was produced.
type SendResult struct {
	Message        Message  `json:"message"`
	AgentResponse  *Message `json:"agent_response,omitempty"`
	AgentResponded bool     `json:"agent_responded"`
}

type Stats struct {
	TotalConversations int `json:"total_conversations"`
	TotalMessages      int `json:"total_messages"`
	ActiveKeys         int `json:"active_keys"`
}
