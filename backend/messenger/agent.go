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

	"github.com/efchatnet/efcare/backend/models"
)

// ToggleAgent enables or disables the agent in an assisted conversation.
// Disabling also cancels the pending handoff timer. It reports false for
// unknown or human-pair conversations.
func (s *Service) ToggleAgent(ctx context.Context, conversationID string, enabled bool) (bool, error) {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	conv, err := s.conversations.GetConversation(ctx, conversationID)
	if err != nil {
		return false, err
	}
	if conv == nil || conv.Kind != models.KindAssisted {
		return false, nil
	}

	if _, err := s.conversations.UpdateConversation(ctx, conversationID, func(c *models.Conversation) {
		c.AgentActive = enabled
	}); err != nil {
		return false, err
	}
	if !enabled {
		s.handoff.Cancel(conversationID)
	}

	s.logger.Info("Toggled agent", "conversation_id", conversationID, "enabled", enabled)
	return true, nil
}

func (s *Service) GetAgentStatus(ctx context.Context, conversationID string) (*models.AgentStatus, error) {
	conv, err := s.requireConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &models.AgentStatus{
		Active:              conv.AgentActive,
		LastHumanResponseAt: conv.LastHumanResponseAt,
		IsAssisted:          conv.Kind == models.KindAssisted,
	}, nil
}

// HandoffPending reports whether a handoff timer is armed for the
// conversation.
func (s *Service) HandoffPending(conversationID string) bool {
	return s.handoff.Pending(conversationID)
}
