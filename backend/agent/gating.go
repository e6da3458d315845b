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

// Package agent decides when the automated assistant may speak and talks
// to the text-generation service on its behalf.
package agent

import "github.com/efchatnet/efcare/backend/models"

type Reason string

const (
	ReasonNotAgentConversation Reason = "not_agent_conversation"
	ReasonAgentDisabled        Reason = "agent_disabled"
	ReasonPatientMessage       Reason = "patient_message"
)

type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

// ShouldRespond reports whether the agent may reply in conv.
func ShouldRespond(conv *models.Conversation) Decision {
	switch {
	case conv.Kind != models.KindAssisted:
		return Decision{Reason: ReasonNotAgentConversation}
	case !conv.AgentActive:
		return Decision{Reason: ReasonAgentDisabled}
	default:
		return Decision{Allowed: true, Reason: ReasonPatientMessage}
	}
}
