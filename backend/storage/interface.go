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

package storage

import (
	"context"
	"errors"
	"time"

	"github.com/efchatnet/efcare/backend/models"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrAlreadyExists = errors.New("storage: already exists")
)

// KeyStore keeps public identity keys. Registering supersedes the
// user's active record; revoked records are retained for audit.
type KeyStore interface {
	RegisterKey(ctx context.Context, userID, publicKey, fingerprint string, at time.Time) (*models.KeyRecord, error)
	// GetActiveKey returns nil, nil when the user has no active key.
	GetActiveKey(ctx context.Context, userID string) (*models.KeyRecord, error)
	// KeyHistory returns every record for the user, oldest first.
	KeyHistory(ctx context.Context, userID string) ([]models.KeyRecord, error)
	ActiveKeyCount(ctx context.Context) (int, error)
}

type ConversationStore interface {
	// CreateConversation fails with ErrAlreadyExists if the id is taken.
	CreateConversation(ctx context.Context, conv models.Conversation) error
	// GetConversation returns nil, nil for unknown ids.
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	FindHumanPair(ctx context.Context, patientID, clinicianID string) (*models.Conversation, error)
	FindAssisted(ctx context.Context, patientID string) (*models.Conversation, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]models.Conversation, error)
	// UpdateConversation applies fn to the stored record atomically and
	// returns the updated copy. Returns ErrNotFound for unknown ids.
	UpdateConversation(ctx context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error)
	CountConversations(ctx context.Context) (int, error)
}

// MessageStore is the append-only, per-conversation ordered ledger.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg models.Message) error
	// GetMessage returns nil, nil for unknown ids.
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	// ListMessages returns the whole log of a conversation in append
	// order.
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// UpdateMessage applies fn atomically. fn reports whether it changed
	// the record. Returns ErrNotFound for unknown ids.
	UpdateMessage(ctx context.Context, id string, fn func(*models.Message) bool) (*models.Message, bool, error)
	DeleteMessage(ctx context.Context, id string) error
	CountMessages(ctx context.Context) (int, error)
}

// QueueStore holds per-user pending delivery queues of message ids.
type QueueStore interface {
	Enqueue(ctx context.Context, userID string, msg models.Message) error
	// Pending returns the queued message ids in enqueue order.
	Pending(ctx context.Context, userID string) ([]string, error)
	// Remove drops the given ids and returns the ones that were present.
	Remove(ctx context.Context, userID string, messageIDs []string) ([]string, error)
}

type Store interface {
	KeyStore
	ConversationStore
	MessageStore
	QueueStore
}
