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

// Package memory is the in-process storage authority. Every collection
// is guarded by its own lock and hands out copies, so readers never see
// a record mid-update.
package memory

import (
	"github.com/efchatnet/efcare/backend/storage"
)

type Store struct {
	*KeyStore
	*ConversationStore
	*MessageStore
	*QueueStore
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		KeyStore:          NewKeyStore(),
		ConversationStore: NewConversationStore(),
		MessageStore:      NewMessageStore(),
		QueueStore:        NewQueueStore(),
	}
}
