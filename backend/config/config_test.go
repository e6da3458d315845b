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

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EFCARE_JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "efcare", cfg.App.Name)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "efchat", cfg.JWT.Issuer)
	assert.Equal(t, BackendMemory, cfg.Storage.Keys)
	assert.Equal(t, BackendMemory, cfg.Storage.Queue)
	assert.Equal(t, "ai-assistant", cfg.Messenger.AgentID)
	assert.Equal(t, 24*time.Hour, cfg.Messenger.DeleteWindow)
	assert.Equal(t, 90*time.Minute, cfg.Messenger.HandoffDelay)
	assert.Equal(t, 10, cfg.Messenger.HistoryLimit)
	assert.Equal(t, 50, cfg.Messenger.DefaultLimit)
	assert.Equal(t, 100, cfg.Messenger.MaxLimit)
	assert.Equal(t, "http://localhost:11434", cfg.Agent.BaseURL)
	assert.Equal(t, "llama3.2", cfg.Agent.Model)
	assert.Equal(t, 60*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, 0.7, cfg.Agent.Temperature)
	assert.Equal(t, 2048, cfg.Agent.MaxTokens)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
app:
  log_level: debug
jwt:
  secret: from-file
storage:
  keys: postgres
  queue: redis
messenger:
  handoff_delay: 45m
agent:
  model: mistral
  timeout: 30s
`)
	t.Setenv("EFCARE_AGENT_MODEL", "phi3")
	t.Setenv("EFCARE_SERVER_PORT", "9090")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, BackendPostgres, cfg.Storage.Keys)
	assert.Equal(t, BackendRedis, cfg.Storage.Queue)
	assert.Equal(t, 45*time.Minute, cfg.Messenger.HandoffDelay)
	assert.Equal(t, 30*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, "phi3", cfg.Agent.Model)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing secret", "app:\n  name: efcare\n"},
		{"unknown key backend", "jwt:\n  secret: x\nstorage:\n  keys: mongo\n"},
		{"unknown queue backend", "jwt:\n  secret: x\nstorage:\n  queue: kafka\n"},
		{"limits inverted", "jwt:\n  secret: x\nmessenger:\n  default_limit: 200\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("EFCARE_JWT_SECRET", "s3cret")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
