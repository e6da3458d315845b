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
	"github.com/efchatnet/efcare/backend/storage"
)

// conversationLog is one conversation's ordered ledger. Each log has its
// own lock so work on different conversations never contends.
type conversationLog struct {
	mu       sync.RWMutex
	messages []*models.Message
}

type MessageStore struct {
	mu    sync.RWMutex
	logs  map[string]*conversationLog // conversation id -> log
	index map[string]string           // message id -> conversation id
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		logs:  make(map[string]*conversationLog),
		index: make(map[string]string),
	}
}

func (s *MessageStore) logFor(conversationID string, create bool) *conversationLog {
	s.mu.RLock()
	l, ok := s.logs[conversationID]
	s.mu.RUnlock()
	if ok || !create {
		return l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok = s.logs[conversationID]; !ok {
		l = &conversationLog{}
		s.logs[conversationID] = l
	}
	return l
}

func (s *MessageStore) AppendMessage(ctx context.Context, msg models.Message) error {
	s.mu.Lock()
	if _, ok := s.index[msg.ID]; ok {
		s.mu.Unlock()
		return storage.ErrAlreadyExists
	}
	s.index[msg.ID] = msg.ConversationID
	s.mu.Unlock()

	l := s.logFor(msg.ConversationID, true)
	stored := msg.Clone()

	l.mu.Lock()
	l.messages = append(l.messages, &stored)
	l.mu.Unlock()
	return nil
}

// locate returns the log holding message id, or nil. Callers find the
// position under the log's lock.
func (s *MessageStore) locate(id string) *conversationLog {
	s.mu.RLock()
	conversationID, ok := s.index[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return s.logFor(conversationID, false)
}

func indexOf(messages []*models.Message, id string) int {
	for i, m := range messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s *MessageStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	l := s.locate(id)
	if l == nil {
		return nil, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	i := indexOf(l.messages, id)
	if i < 0 {
		return nil, nil
	}
	out := l.messages[i].Clone()
	return &out, nil
}

func (s *MessageStore) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	l := s.logFor(conversationID, false)
	if l == nil {
		return []models.Message{}, nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Message, 0, len(l.messages))
	for _, m := range l.messages {
		out = append(out, m.Clone())
	}
	return out, nil
}

func (s *MessageStore) UpdateMessage(ctx context.Context, id string, fn func(*models.Message) bool) (*models.Message, bool, error) {
	l := s.locate(id)
	if l == nil {
		return nil, false, storage.ErrNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	i := indexOf(l.messages, id)
	if i < 0 {
		return nil, false, storage.ErrNotFound
	}

	m := l.messages[i]
	changed := fn(m)
	out := m.Clone()
	return &out, changed, nil
}

func (s *MessageStore) DeleteMessage(ctx context.Context, id string) error {
	l := s.locate(id)
	if l == nil {
		return storage.ErrNotFound
	}

	l.mu.Lock()
	i := indexOf(l.messages, id)
	if i < 0 {
		l.mu.Unlock()
		return storage.ErrNotFound
	}
	l.messages = append(l.messages[:i], l.messages[i+1:]...)
	l.mu.Unlock()

	s.mu.Lock()
	delete(s.index, id)
	s.mu.Unlock()
	return nil
}

func (s *MessageStore) CountMessages(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.index), nil
}
