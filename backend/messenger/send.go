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

package messenger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/efchatnet/efcare/backend/agent"
	"github.com/efchatnet/efcare/backend/models"
)

// SendOpaque appends an end-to-end encrypted message to a human-pair
// conversation.
func (s *Service) SendOpaque(ctx context.Context, conversationID, senderID string, payload models.OpaquePayload, messageType models.MessageType, replyToID string) (*models.Message, error) {
	if messageType == "" {
		messageType = models.MessageText
	}
	if !messageType.Valid() {
		return nil, invalidArgument("unknown message type %q", messageType)
	}
	if payload.Ciphertext == "" {
		return nil, invalidArgument("ciphertext is required")
	}

	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.writableConversation(ctx, conversationID, senderID, models.PayloadOpaque)
	if err != nil {
		return nil, err
	}

	msg := s.newMessage(conv.ID, senderID, payload, messageType)
	msg.ReplyToID = replyToID
	if err := s.commit(ctx, conv, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendPlain appends a patient's text to an assisted conversation and,
// when gating allows it, asks the bridge for a reply. A failed or
// abandoned bridge call only results in AgentResponded being false; the
// patient's message stays stored.
//
// Plain sends to one conversation take turns: a second send waits until
// the first one's reply is stored or dropped. Other operations on the
// conversation are not held up by the bridge call.
func (s *Service) SendPlain(ctx context.Context, conversationID, senderID, text string) (*models.SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidArgument("text is required")
	}
	if senderID == s.agentID {
		return nil, invalidArgument("the agent cannot send through this path")
	}

	endTurn, err := s.turns.LockContext(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer endTurn()

	unlock := s.locks.Lock(conversationID)
	conv, err := s.writableConversation(ctx, conversationID, senderID, models.PayloadPlain)
	if err != nil {
		unlock()
		return nil, err
	}

	history, err := s.messages.ListMessages(ctx, conv.ID)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	msg := s.newMessage(conv.ID, senderID, models.PlainPayload{Text: text}, models.MessageText)
	if err := s.commit(ctx, conv, msg); err != nil {
		unlock()
		return nil, err
	}
	decision := agent.ShouldRespond(conv)
	unlock()

	result := &models.SendResult{Message: msg}
	if !decision.Allowed || s.bridge == nil {
		s.logger.Debug("Agent not responding", "conversation_id", conv.ID, "reason", decision.Reason)
		return result, nil
	}

	if len(history) > s.historyLimit {
		history = history[len(history)-s.historyLimit:]
	}
	req := agent.BuildRequest(history, senderID, text, conv.Metadata.Model)

	reply, err := s.bridge.Complete(ctx, req)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Warn("Agent bridge failed", "conversation_id", conv.ID, "message_id", msg.ID, "error", err)
		return result, nil
	}

	agentMsg, err := s.appendAgentReply(ctx, conv.ID, reply.Text)
	if err != nil {
		s.logger.Warn("Dropped agent reply", "conversation_id", conv.ID, "error", err)
		return result, nil
	}
	if agentMsg != nil {
		result.AgentResponse = agentMsg
		result.AgentResponded = true
	}
	return result, nil
}

// appendAgentReply stores the bridge's text as an agent message. Gating
// is re-checked because the agent may have been disabled while the
// bridge call was in flight; in that case nothing is stored.
func (s *Service) appendAgentReply(ctx context.Context, conversationID, text string) (*models.Message, error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.requireConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if decision := agent.ShouldRespond(conv); !decision.Allowed {
		s.logger.Debug("Agent disabled during bridge call", "conversation_id", conv.ID, "reason", decision.Reason)
		return nil, nil
	}

	msg := s.newMessage(conv.ID, s.agentID, models.PlainPayload{Text: text}, models.MessageText)
	msg.IsAgentResponse = true
	if err := s.commit(ctx, conv, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// writableConversation loads the conversation and checks the payload
// kind and the sender. Must be called with the conversation lock held.
func (s *Service) writableConversation(ctx context.Context, conversationID, senderID string, payload models.PayloadKind) (*models.Conversation, error) {
	conv, err := s.requireConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if models.PayloadKindFor(conv.Kind) != payload {
		return nil, &KindMismatchError{ConversationID: conv.ID, Kind: conv.Kind, Payload: payload}
	}
	if !conv.HasParticipant(senderID) {
		return nil, fmt.Errorf("%w: %s", ErrNotParticipant, conv.ID)
	}
	return conv, nil
}

func (s *Service) newMessage(conversationID, senderID string, payload models.Payload, messageType models.MessageType) models.Message {
	return models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Payload:        payload,
		MessageType:    messageType,
		Timestamp:      s.now(),
		Status:         models.StatusSent,
	}
}

// commit appends msg to the ledger, stamps the conversation and fans the
// message out to the other human participants' queues. Must be called
// with the conversation lock held.
func (s *Service) commit(ctx context.Context, conv *models.Conversation, msg models.Message) error {
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	clinicianReply := conv.Metadata.ClinicianID != "" && msg.SenderID == conv.Metadata.ClinicianID
	updated, err := s.conversations.UpdateConversation(ctx, conv.ID, func(c *models.Conversation) {
		at := msg.Timestamp
		c.UpdatedAt = at
		c.LastMessageAt = &at
		if clinicianReply {
			human := at
			c.LastHumanResponseAt = &human
		}
	})
	if err != nil {
		if rbErr := s.messages.DeleteMessage(ctx, msg.ID); rbErr != nil {
			s.logger.Error("Failed to roll back message", "conversation_id", conv.ID, "message_id", msg.ID, "error", rbErr)
		}
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	*conv = *updated

	if clinicianReply {
		s.handoff.Arm(conv.ID)
	}

	for _, participantID := range conv.ParticipantIDs {
		if participantID == msg.SenderID || participantID == s.agentID {
			continue
		}
		if err := s.queue.Enqueue(ctx, participantID, msg); err != nil {
			s.logger.Error("Failed to enqueue message", "conversation_id", conv.ID, "message_id", msg.ID, "user_id", participantID, "error", err)
		}
	}
	return nil
}
