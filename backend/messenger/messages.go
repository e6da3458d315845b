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
	"errors"
	"fmt"

	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

// GetMessages returns up to limit of the most recent messages strictly
// before beforeID, or the most recent ones when beforeID is empty or not
// in the conversation.
func (s *Service) GetMessages(ctx context.Context, conversationID string, limit int, beforeID string) ([]models.Message, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	log, err := s.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if beforeID != "" {
		for i := range log {
			if log[i].ID == beforeID {
				log = log[:i]
				break
			}
		}
	}

	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	return log, nil
}

// DeleteMessage removes a message if requesterID authored it within the
// delete window. Refusals return false without error.
func (s *Service) DeleteMessage(ctx context.Context, messageID, requesterID string) (bool, error) {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}

	unlock := s.locks.Lock(msg.ConversationID)
	defer unlock()

	// Re-read under the lock; a concurrent delete may have won.
	msg, err = s.messages.GetMessage(ctx, messageID)
	if err != nil || msg == nil {
		return false, err
	}
	if msg.SenderID != requesterID {
		s.logger.Debug("Refused delete by non-author", "message_id", messageID, "user_id", requesterID)
		return false, nil
	}
	if s.now().Sub(msg.Timestamp) > s.deleteWindow {
		s.logger.Debug("Refused delete outside window", "message_id", messageID, "user_id", requesterID)
		return false, nil
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete message: %w", err)
	}
	return true, nil
}
