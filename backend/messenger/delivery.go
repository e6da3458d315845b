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

// GetUndelivered returns the user's pending messages in queue order.
// Messages deleted since they were queued are skipped. Nothing is
// mutated.
func (s *Service) GetUndelivered(ctx context.Context, userID string) ([]models.Message, error) {
	ids, err := s.queue.Pending(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	out := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		msg, err := s.messages.GetMessage(ctx, id)
		if err != nil {
			return nil, err
		}
		if msg != nil {
			out = append(out, *msg)
		}
	}
	return out, nil
}

// MarkDelivered removes the ids from the user's queue and moves each
// removed message still in Sent to Delivered. Ids that were not queued
// are ignored.
func (s *Service) MarkDelivered(ctx context.Context, userID string, messageIDs []string) error {
	removed, err := s.queue.Remove(ctx, userID, messageIDs)
	if err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}

	for _, id := range removed {
		msg, err := s.messages.GetMessage(ctx, id)
		if err != nil {
			return err
		}
		if msg == nil {
			continue
		}

		unlock := s.locks.Lock(msg.ConversationID)
		_, _, err = s.messages.UpdateMessage(ctx, id, func(m *models.Message) bool {
			if m.Status != models.StatusSent {
				return false
			}
			at := s.now()
			m.Status = models.StatusDelivered
			m.DeliveredAt = &at
			return true
		})
		unlock()
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}

// MarkRead marks every message not authored by userID, up to and
// including lastReadMessageID, as read. If lastReadMessageID is not in
// the conversation nothing changes.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID, lastReadMessageID string) error {
	unlock := s.locks.Lock(conversationID)
	defer unlock()

	log, err := s.messages.ListMessages(ctx, conversationID)
	if err != nil {
		return err
	}

	cut := -1
	for i := range log {
		if log[i].ID == lastReadMessageID {
			cut = i
			break
		}
	}
	if cut < 0 {
		return nil
	}

	at := s.now()
	for _, msg := range log[:cut+1] {
		if msg.SenderID == userID || msg.Status == models.StatusRead {
			continue
		}
		_, _, err := s.messages.UpdateMessage(ctx, msg.ID, func(m *models.Message) bool {
			if m.Status == models.StatusRead {
				return false
			}
			readAt := at
			m.Status = models.StatusRead
			m.ReadAt = &readAt
			return true
		})
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}
