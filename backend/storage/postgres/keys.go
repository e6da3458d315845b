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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage"
)

var _ storage.KeyStore = (*Store)(nil)

const uniqueViolation = "23505"

func (s *Store) RegisterKey(ctx context.Context, userID, publicKey, fingerprint string, at time.Time) (*models.KeyRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Serialize registrations for the same user
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE key_records SET revoked_at = $2
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, at); err != nil {
		return nil, fmt.Errorf("failed to revoke previous key: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO key_records (user_id, public_key, fingerprint, created_at)
		VALUES ($1, $2, $3, $4)`,
		userID, publicKey, fingerprint, at)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: active key for %s", storage.ErrAlreadyExists, userID)
		}
		return nil, fmt.Errorf("failed to insert key: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.KeyRecord{
		UserID:      userID,
		PublicKey:   publicKey,
		Fingerprint: fingerprint,
		CreatedAt:   at,
	}, nil
}

func (s *Store) GetActiveKey(ctx context.Context, userID string) (*models.KeyRecord, error) {
	rec := &models.KeyRecord{UserID: userID}
	err := s.db.QueryRowContext(ctx, `
		SELECT public_key, fingerprint, created_at FROM key_records
		WHERE user_id = $1 AND revoked_at IS NULL`, userID).Scan(
		&rec.PublicKey, &rec.Fingerprint, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (s *Store) KeyHistory(ctx context.Context, userID string) ([]models.KeyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT public_key, fingerprint, created_at, revoked_at FROM key_records
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []models.KeyRecord{}
	for rows.Next() {
		rec := models.KeyRecord{UserID: userID}
		var revokedAt sql.NullTime
		if err := rows.Scan(&rec.PublicKey, &rec.Fingerprint, &rec.CreatedAt, &revokedAt); err != nil {
			return nil, err
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		if revokedAt.Valid {
			t := revokedAt.Time.UTC()
			rec.RevokedAt = &t
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

func (s *Store) ActiveKeyCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM key_records WHERE revoked_at IS NULL`).Scan(&count)
	return count, err
}
