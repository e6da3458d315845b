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
	"sort"
	"sync"

	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

type ConversationStore struct {
	mu        sync.RWMutex
	byID      map[string]*models.Conversation
	humanPair map[string]string // pairKey(patient, clinician) -> id
	assisted  map[string]string // patient id -> id
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		byID:      make(map[string]*models.Conversation),
		humanPair: make(map[string]string),
		assisted:  make(map[string]string),
	}
}

func pairKey(patientID, clinicianID string) string {
	return patientID + "\x00" + clinicianID
}

func (s *ConversationStore) CreateConversation(ctx context.Context, conv models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[conv.ID]; ok {
		return storage.ErrAlreadyExists
	}

	patientID := ""
	if len(conv.ParticipantIDs) > 0 {
		patientID = conv.ParticipantIDs[0]
	}
	switch conv.Kind {
	case models.KindHumanPair:
		key := pairKey(patientID, conv.Metadata.ClinicianID)
		if _, ok := s.humanPair[key]; ok {
			return storage.ErrAlreadyExists
		}
		s.humanPair[key] = conv.ID
	case models.KindAssisted:
		if _, ok := s.assisted[patientID]; ok {
			return storage.ErrAlreadyExists
		}
		s.assisted[patientID] = conv.ID
	}

	stored := conv.Clone()
	s.byID[conv.ID] = &stored
	return nil
}

func (s *ConversationStore) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id), nil
}

func (s *ConversationStore) FindHumanPair(ctx context.Context, patientID, clinicianID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.humanPair[pairKey(patientID, clinicianID)]), nil
}

func (s *ConversationStore) FindAssisted(ctx context.Context, patientID string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(s.assisted[patientID]), nil
}

// lookup must be called with s.mu held.
func (s *ConversationStore) lookup(id string) *models.Conversation {
	conv, ok := s.byID[id]
	if !ok {
		return nil
	}
	out := conv.Clone()
	return &out
}

// ListConversationsForUser returns the user's conversations, most
// recently active first.
func (s *ConversationStore) ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.RLock()
	out := []models.Conversation{}
	for _, conv := range s.byID {
		if conv.HasParticipant(userID) {
			out = append(out, conv.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].ActivityAt(), out[j].ActivityAt()
		if ai.Equal(aj) {
			return out[i].ID < out[j].ID
		}
		return ai.After(aj)
	})
	return out, nil
}

func (s *ConversationStore) UpdateConversation(ctx context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	kind := conv.Kind
	fn(conv)
	conv.Kind = kind

	out := conv.Clone()
	return &out, nil
}

func (s *ConversationStore) CountConversations(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
