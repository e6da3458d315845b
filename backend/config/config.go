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

// Package config loads server settings from a YAML file and EFCARE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "EFCARE"

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Messenger MessengerConfig `mapstructure:"messenger"`
	Agent     AgentConfig     `mapstructure:"agent"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// StorageConfig selects the backend for each store. Conversations and
// messages are always kept in memory.
type StorageConfig struct {
	Keys  string `mapstructure:"keys"`
	Queue string `mapstructure:"queue"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MessengerConfig struct {
	AgentID      string        `mapstructure:"agent_id"`
	DeleteWindow time.Duration `mapstructure:"delete_window"`
	HandoffDelay time.Duration `mapstructure:"handoff_delay"`
	HistoryLimit int           `mapstructure:"history_limit"`
	DefaultLimit int           `mapstructure:"default_limit"`
	MaxLimit     int           `mapstructure:"max_limit"`
}

type AgentConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "efcare")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.port", "8081")
	v.SetDefault("server.allowed_origins", []string{
		"https://efchat.net",
		"https://app.efchat.net",
		"http://localhost:3000",
	})

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "efchat")

	v.SetDefault("storage.keys", BackendMemory)
	v.SetDefault("storage.queue", BackendMemory)

	v.SetDefault("database.url", "postgres://localhost/efcare?sslmode=disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("messenger.agent_id", "ai-assistant")
	v.SetDefault("messenger.delete_window", 24*time.Hour)
	v.SetDefault("messenger.handoff_delay", 90*time.Minute)
	v.SetDefault("messenger.history_limit", 10)
	v.SetDefault("messenger.default_limit", 50)
	v.SetDefault("messenger.max_limit", 100)

	v.SetDefault("agent.base_url", "http://localhost:11434")
	v.SetDefault("agent.model", "llama3.2")
	v.SetDefault("agent.timeout", 60*time.Second)
	v.SetDefault("agent.temperature", 0.7)
	v.SetDefault("agent.max_tokens", 2048)
}

// Load reads the configuration file at path, if any, and overlays
// EFCARE_* environment variables (EFCARE_JWT_SECRET for jwt.secret).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set EFCARE_JWT_SECRET)")
	}
	switch c.Storage.Keys {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("storage.keys: unknown backend %q", c.Storage.Keys)
	}
	switch c.Storage.Queue {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("storage.queue: unknown backend %q", c.Storage.Queue)
	}
	if c.Messenger.MaxLimit < c.Messenger.DefaultLimit {
		return fmt.Errorf("messenger.max_limit (%d) is below messenger.default_limit (%d)", c.Messenger.MaxLimit, c.Messenger.DefaultLimit)
	}
	return nil
}

// SlogLevel maps app.log_level to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
