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

package agent

import (
	"context"
	"errors"
	"time"

	"github.com/efchatnet/efcare/backend/models"
)

// MaxHistory bounds how many prior ledger entries are sent as context.
const MaxHistory = 10

var ErrMalformedResponse = errors.New("agent: malformed response")

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is what the bridge sends to the text-generation service.
// Zero Model, nil Temperature and nil MaxTokens fall back to the
// client's configured defaults.
type Request struct {
	SystemPrompt string
	PriorTurns   []Turn
	Message      string
	Model        string
	Temperature  *float64
	MaxTokens    *int
}

type Reply struct {
	Text     string
	Model    string
	Duration time.Duration
}

// Bridge is the request/response contract with the text-generation
// service. Any error means no reply; callers do not retry.
type Bridge interface {
	Complete(ctx context.Context, req Request) (*Reply, error)
}

// StreamingBridge additionally yields the reply as it is generated.
type StreamingBridge interface {
	Bridge
	Stream(ctx context.Context, req Request) (*ChunkStream, error)
}

// SafetyPreamble is prepended to every conversation sent to the model.
const SafetyPreamble = `You are the virtual assistant of a spinal rehabilitation clinic that treats scoliosis and other spinal deformities.

You help patients with:
- general questions about their rehabilitation and exercise programme
- wearing schedules and care of braces and orthoses
- reminders about appointments and procedures
- general spine health

Rules you must always follow:
- Never make a diagnosis and never prescribe or cancel treatment.
- If the patient mentions severe or sudden pain, worsening symptoms or anything urgent, tell them to contact their clinician immediately.
- Recommend a consultation with a clinician whenever symptoms sound serious.
- Answer in the language the patient writes in.
- Be polite, empathetic and supportive, and avoid complex medical terminology.`

// BuildRequest turns the most recent ledger entries into a bridge
// request. Entries sent by humanID become user turns, everything else
// assistant turns. Only the last MaxHistory entries are used.
func BuildRequest(history []models.Message, humanID, message, model string) Request {
	if len(history) > MaxHistory {
		history = history[len(history)-MaxHistory:]
	}

	turns := make([]Turn, 0, len(history))
	for i := range history {
		role := RoleAssistant
		if history[i].SenderID == humanID {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Content: history[i].Text()})
	}

	return Request{
		SystemPrompt: SafetyPreamble,
		PriorTurns:   turns,
		Message:      message,
		Model:        model,
	}
}
