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
	"time"

	"github.com/efchatnet/efcare/backend/models"
)

type KeyStore struct {
	mu      sync.RWMutex
	records map[string][]*models.KeyRecord // user id -> history, oldest first
}

func NewKeyStore() *KeyStore {
	return &KeyStore{records: make(map[string][]*models.KeyRecord)}
}

// RegisterKey revokes the current record, if any, and appends a new
// active one in a single critical section.
func (s *KeyStore) RegisterKey(ctx context.Context, userID, publicKey, fingerprint string, at time.Time) (*models.KeyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[userID]
	for _, rec := range history {
		if rec.RevokedAt == nil {
			revokedAt := at
			rec.RevokedAt = &revokedAt
		}
	}

	rec := &models.KeyRecord{
		UserID:      userID,
		PublicKey:   publicKey,
		Fingerprint: fingerprint,
		CreatedAt:   at,
	}
	s.records[userID] = append(history, rec)

	out := *rec
	return &out, nil
}

func (s *KeyStore) GetActiveKey(ctx context.Context, userID string) (*models.KeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[userID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].RevokedAt == nil {
			out := copyKey(history[i])
			return &out, nil
		}
	}
	return nil, nil
}

func (s *KeyStore) KeyHistory(ctx context.Context, userID string) ([]models.KeyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.records[userID]
	out := make([]models.KeyRecord, 0, len(history))
	for _, rec := range history {
		out = append(out, copyKey(rec))
	}
	return out, nil
}

func (s *KeyStore) ActiveKeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, history := range s.records {
		for _, rec := range history {
			if rec.RevokedAt == nil {
				count++
			}
		}
	}
	return count, nil
}

func copyKey(rec *models.KeyRecord) models.KeyRecord {
	out := *rec
	if rec.RevokedAt != nil {
		t := *rec.RevokedAt
		out.RevokedAt = &t
	}
	return out
}
