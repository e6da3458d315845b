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

	"github.com/google/uuid"

	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

// CreateHumanPair returns the patient's conversation with the clinician,
// creating it on first use. The agent is never active in it.
func (s *Service) CreateHumanPair(ctx context.Context, patientID, clinicianID, clinicianName, specialty string) (*models.Conversation, error) {
	if patientID == "" || clinicianID == "" {
		return nil, invalidArgument("patient id and clinician id are required")
	}
	if patientID == clinicianID || clinicianID == s.agentID {
		return nil, invalidArgument("clinician must be a different human participant")
	}

	unlock := s.locks.Lock("pair:" + patientID + ":" + clinicianID)
	defer unlock()

	find := func() (*models.Conversation, error) {
		return s.conversations.FindHumanPair(ctx, patientID, clinicianID)
	}
	if existing, err := find(); err != nil || existing != nil {
		return existing, err
	}

	now := s.now()
	conv := models.Conversation{
		ID:             "conv_" + uuid.New().String(),
		ParticipantIDs: []string{patientID, clinicianID},
		Kind:           models.KindHumanPair,
		CreatedAt:      now,
		UpdatedAt:      now,
		AgentActive:    false,
		Metadata: models.ConversationMetadata{
			ClinicianID:   clinicianID,
			ClinicianName: clinicianName,
			Specialty:     specialty,
		},
	}
	return s.create(ctx, conv, find)
}

// CreateAssisted returns the patient's conversation with the agent,
// creating it with the agent active on first use.
func (s *Service) CreateAssisted(ctx context.Context, patientID, model string) (*models.Conversation, error) {
	if patientID == "" {
		return nil, invalidArgument("patient id is required")
	}
	if patientID == s.agentID {
		return nil, invalidArgument("the agent cannot be a patient")
	}
	if model == "" {
		model = s.defaultModel
	}

	unlock := s.locks.Lock("assisted:" + patientID)
	defer unlock()

	find := func() (*models.Conversation, error) {
		return s.conversations.FindAssisted(ctx, patientID)
	}
	if existing, err := find(); err != nil || existing != nil {
		return existing, err
	}

	now := s.now()
	conv := models.Conversation{
		ID:             "conv_" + uuid.New().String(),
		ParticipantIDs: []string{patientID, s.agentID},
		Kind:           models.KindAssisted,
		CreatedAt:      now,
		UpdatedAt:      now,
		AgentActive:    true,
		Metadata:       models.ConversationMetadata{Model: model},
	}
	return s.create(ctx, conv, find)
}

func (s *Service) create(ctx context.Context, conv models.Conversation, find func() (*models.Conversation, error)) (*models.Conversation, error) {
	err := s.conversations.CreateConversation(ctx, conv)
	if errors.Is(err, storage.ErrAlreadyExists) {
		// Another writer won the race; hand back its conversation.
		return find()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.logger.Info("Created conversation", "conversation_id", conv.ID, "kind", conv.Kind)
	out := conv.Clone()
	return &out, nil
}

// GetConversation returns nil, nil for unknown ids.
func (s *Service) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	return s.conversations.GetConversation(ctx, id)
}

// ListForUser returns the user's conversations, most recently active
// first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.conversations.ListConversationsForUser(ctx, userID)
}

func (s *Service) requireConversation(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return conv, nil
}
