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

import (
	"time"
)

// ConversationKind decides which payload variant a conversation accepts.
// It is fixed at creation.
type ConversationKind string

const (
	// KindHumanPair is a patient/clinician conversation carrying only
	// opaque (end-to-end encrypted) payloads.
	KindHumanPair ConversationKind = "human_pair"
	// KindAssisted is a patient/agent conversation carrying only plain
	// payloads the server may read.
	KindAssisted ConversationKind = "assisted"
)

// ConversationMetadata holds kind-specific attributes. Clinician fields
// are set for human-pair conversations, Model for assisted ones.
type ConversationMetadata struct {
	ClinicianID   string `json:"clinician_id,omitempty"`
	ClinicianName string `json:"clinician_name,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
	Model         string `json:"model,omitempty"`
}

type Conversation struct {
	ID                  string               `json:"id"`
	ParticipantIDs      []string             `json:"participant_ids"`
	Kind                ConversationKind     `json:"kind"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
	LastMessageAt       *time.Time           `json:"last_message_at,omitempty"`
	LastHumanResponseAt *time.Time           `json:"last_human_response_at,omitempty"`
	AgentActive         bool                 `json:"agent_active"`
	Metadata            ConversationMetadata `json:"metadata"`
}

// HasParticipant reports whether userID is one of the participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.ParticipantIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ActivityAt is the ordering key for conversation lists: the last
// message time, falling back to the last update.
func (c *Conversation) ActivityAt() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.UpdatedAt
}

// Clone returns a deep copy safe to hand out of a store.
func (c Conversation) Clone() Conversation {
	out := c
	out.ParticipantIDs = append([]string(nil), c.ParticipantIDs...)
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		out.LastMessageAt = &t
	}
	if c.LastHumanResponseAt != nil {
		t := *c.LastHumanResponseAt
		out.LastHumanResponseAt = &t
	}
	return out
}
