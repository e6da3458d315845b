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

package memory

import (
	"context"
	"sync"

	"github.com/efchatnet/efcare/backend/models"
)

type QueueStore struct {
	mu     sync.Mutex
	queues map[string][]string // user id -> pending message ids, FIFO
}

func NewQueueStore() *QueueStore {
	return &QueueStore{queues: make(map[string][]string)}
}

func (s *QueueStore) Enqueue(ctx context.Context, userID string, msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[userID] = append(s.queues[userID], msg.ID)
	return nil
}

func (s *QueueStore) Pending(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.queues[userID]...), nil
}

func (s *QueueStore) Remove(ctx context.Context, userID string, messageIDs []string) ([]string, error) {
	drop := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	queue := s.queues[userID]
	remaining := make([]string, 0, len(queue))
	removed := []string{}
	for _, id := range queue {
		if drop[id] {
			removed = append(removed, id)
			continue
		}
		remaining = append(remaining, id)
	}

	if len(remaining) == 0 {
		delete(s.queues, userID)
	} else {
		s.queues[userID] = remaining
	}
	return removed, nil
}
