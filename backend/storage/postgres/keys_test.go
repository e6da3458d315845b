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
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestStore connects to EFCARE_TEST_DATABASE_URL and skips the test
// when it is not set.
func getTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("EFCARE_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("skipping: EFCARE_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, url)
	require.NoError(t, err)

	s := NewStore(db)
	require.NoError(t, s.Migrate(ctx))
	_, err = db.ExecContext(ctx, `TRUNCATE key_records`)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyRegistryRotation(t *testing.T) {
	s := getTestStore(t)
	ctx := context.Background()
	t0 := time.Date(2025, 5, 12, 8, 0, 0, 0, time.UTC)

	_, err := s.RegisterKey(ctx, "u1", "pk-1", "fp-1", t0)
	require.NoError(t, err)
	_, err = s.RegisterKey(ctx, "u1", "pk-2", "fp-2", t0.Add(time.Hour))
	require.NoError(t, err)

	active, err := s.GetActiveKey(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "pk-2", active.PublicKey)
	assert.True(t, active.CreatedAt.Equal(t0.Add(time.Hour)))

	history, err := s.KeyHistory(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[0].RevokedAt)
	assert.True(t, history[0].RevokedAt.Equal(t0.Add(time.Hour)))
	assert.Nil(t, history[1].RevokedAt)

	count, err := s.ActiveKeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	missing, err := s.GetActiveKey(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := getTestStore(t)
	assert.NoError(t, s.Migrate(context.Background()))
}
