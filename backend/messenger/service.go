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

// Package messenger implements the secure conversation core: key
// registry, conversations, the message ledger, delivery queues and the
// agent handoff rules.
//
// Human-pair conversations carry only opaque payloads the server cannot
// read. Assisted conversations carry only plain text, which may be
// forwarded to the text-generation service. Every write is validated
// against the conversation's kind before anything is stored.
package messenger

import (
	"context"
	"log/slog"
	"time"

	"github.com/efchatnet/efcare/backend/agent"
	"github.com/efchatnet/efcare/backend/clock"
	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

const (
	DefaultAgentID      = "ai-assistant"
	DefaultDeleteWindow = 24 * time.Hour
	DefaultLimit        = 50
	MaxLimit            = 100
)

// Deps are the collaborators a Service is built from. Bridge may be nil,
// in which case the agent never replies.
type Deps struct {
	Keys          storage.KeyStore
	Conversations storage.ConversationStore
	Messages      storage.MessageStore
	Queue         storage.QueueStore
	Bridge        agent.Bridge
	Clock         clock.Clock
	Logger        *slog.Logger
}

type Config struct {
	AgentID      string
	DefaultModel string
	DeleteWindow time.Duration
	HandoffDelay time.Duration
	HistoryLimit int
	DefaultLimit int
	MaxLimit     int
}

type Service struct {
	keys          storage.KeyStore
	conversations storage.ConversationStore
	messages      storage.MessageStore
	queue         storage.QueueStore
	bridge        agent.Bridge
	clock         clock.Clock
	logger        *slog.Logger

	handoff *agent.HandoffTimers
	// locks guards ledger writes per conversation. turns is held by a
	// plain send from the patient's append through the agent's reply, so
	// that replies directly follow the message they answer.
	locks   *keyedMutex
	turns   *keyedMutex

	agentID      string
	defaultModel string
	deleteWindow time.Duration
	historyLimit int
	defaultLimit int
	maxLimit     int
}

func NewService(deps Deps, cfg Config) *Service {
	s := &Service{
		keys:          deps.Keys,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		queue:         deps.Queue,
		bridge:        deps.Bridge,
		clock:         deps.Clock,
		logger:        deps.Logger,
		locks:         newKeyedMutex(),
		turns:         newKeyedMutex(),
		agentID:       cfg.AgentID,
		defaultModel:  cfg.DefaultModel,
		deleteWindow:  cfg.DeleteWindow,
		historyLimit:  cfg.HistoryLimit,
		defaultLimit:  cfg.DefaultLimit,
		maxLimit:      cfg.MaxLimit,
	}
	if s.clock == nil {
		s.clock = clock.Real()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.agentID == "" {
		s.agentID = DefaultAgentID
	}
	if s.defaultModel == "" {
		s.defaultModel = agent.DefaultModel
	}
	if s.deleteWindow <= 0 {
		s.deleteWindow = DefaultDeleteWindow
	}
	if s.historyLimit <= 0 || s.historyLimit > agent.MaxHistory {
		s.historyLimit = agent.MaxHistory
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = DefaultLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = MaxLimit
	}
	s.handoff = agent.NewHandoffTimers(s.clock, cfg.HandoffDelay, nil)
	return s
}

// AgentID is the synthetic participant id used for agent replies.
func (s *Service) AgentID() string {
	return s.agentID
}

// Close cancels every pending handoff timer.
func (s *Service) Close() {
	s.handoff.Stop()
}

func (s *Service) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *Service) ListClinicians() []models.Clinician {
	return models.Clinicians(s.agentID)
}

func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	conversations, err := s.conversations.CountConversations(ctx)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.CountMessages(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := s.keys.ActiveKeyCount(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Stats{
		TotalConversations: conversations,
		TotalMessages:      messages,
		ActiveKeys:         keys,
	}, nil
}
