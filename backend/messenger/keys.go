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
	"fmt"

	"github.com/efchatnet/efcare/backend/models"
)

// RegisterKey stores a new public key for the user, revoking the one it
// replaces.
func (s *Service) RegisterKey(ctx context.Context, userID, publicKey, fingerprint string) (*models.KeyRecord, error) {
	if userID == "" || publicKey == "" || fingerprint == "" {
		return nil, invalidArgument("user id, public key and fingerprint are required")
	}

	rec, err := s.keys.RegisterKey(ctx, userID, publicKey, fingerprint, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to register key: %w", err)
	}

	s.logger.Info("Registered public key", "user_id", userID, "fingerprint", fingerprint)
	return rec, nil
}

// GetKey returns the user's active key, or nil if there is none.
func (s *Service) GetKey(ctx context.Context, userID string) (*models.KeyRecord, error) {
	return s.keys.GetActiveKey(ctx, userID)
}

func (s *Service) KeyHistory(ctx context.Context, userID string) ([]models.KeyRecord, error) {
	return s.keys.KeyHistory(ctx, userID)
}
