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

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

const (
	// QueueTTL bounds how long an idle delivery queue is kept.
	QueueTTL = 7 * 24 * time.Hour

	queuePrefix  = "efcare:queue:"  // efcare:queue:{userId} - list of message IDs
	notifyPrefix = "efcare:notify:" // efcare:notify:{userId} - pub/sub channel
)

// Notification is published when a message is queued for a user. It
// never carries message content.
type Notification struct {
	Type           string             `json:"type"`
	MessageID      string             `json:"message_id"`
	ConversationID string             `json:"conversation_id"`
	SenderID       string             `json:"sender_id"`
	MessageType    models.MessageType `json:"message_type"`
}

// QueueStore keeps per-user delivery queues as Redis lists so that
// several server instances share them.
type QueueStore struct {
	rdb *redis.Client
}

var _ storage.QueueStore = (*QueueStore)(nil)

func NewQueueStore(rdb *redis.Client) *QueueStore {
	return &QueueStore{rdb: rdb}
}

// Enqueue appends the message id to the user's queue (FIFO) and
// publishes a notification.
func (s *QueueStore) Enqueue(ctx context.Context, userID string, msg models.Message) error {
	queueKey := queuePrefix + userID

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, queueKey, msg.ID)
	pipe.Expire(ctx, queueKey, QueueTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	notification, err := json.Marshal(Notification{
		Type:           "new_message",
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		MessageType:    msg.MessageType,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	// Delivery does not depend on the notification; the queue is the
	// source of truth.
	s.rdb.Publish(ctx, notifyPrefix+userID, notification)
	return nil
}

func (s *QueueStore) Pending(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.rdb.LRange(ctx, queuePrefix+userID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get message queue: %w", err)
	}
	return ids, nil
}

// Remove drops every occurrence of the given ids from the user's queue
// and returns the ids that were present, in argument order.
func (s *QueueStore) Remove(ctx context.Context, userID string, messageIDs []string) ([]string, error) {
	if len(messageIDs) == 0 {
		return []string{}, nil
	}
	queueKey := queuePrefix + userID

	seen := make(map[string]bool, len(messageIDs))
	ids := make([]string, 0, len(messageIDs))
	for _, id := range messageIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	pipe := s.rdb.TxPipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.LRem(ctx, queueKey, 0, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to remove from queue: %w", err)
	}

	removed := []string{}
	for i, cmd := range cmds {
		if cmd.Val() > 0 {
			removed = append(removed, ids[i])
		}
	}
	return removed, nil
}

// Subscribe returns a subscription to the user's queue notifications.
// The caller must close it.
func (s *QueueStore) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return s.rdb.Subscribe(ctx, notifyPrefix+userID)
}
