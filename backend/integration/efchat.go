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

// Package integration builds the messenger from configuration so it can
// run standalone or be embedded into an existing efchat router.
package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/efchatnet/efcare/backend/agent"
	"github.com/efchatnet/efcare/backend/config"
	"github.com/efchatnet/efcare/backend/handlers"
	"github.com/efchatnet/efcare/backend/messenger"
	"github.com/efchatnet/efcare/backend/middleware"
	"github.com/efchatnet/efcare/backend/storage"
	"github.com/efchatnet/efcare/backend/storage/memory"
	"github.com/efchatnet/efcare/backend/storage/postgres"
	redisStore "github.com/efchatnet/efcare/backend/storage/redis"
)

// Messenger is the assembled messenger: stores, agent bridge, service
// and HTTP routes.
type Messenger struct {
	cfg     *config.Config
	service *messenger.Service
	bridge  *agent.OllamaClient
	db      *sql.DB
	redis   *redis.Client
	logger  *slog.Logger
}

// New connects the configured backends, runs migrations and builds the
// service.
func New(ctx context.Context, cfg *config.Config) (*Messenger, error) {
	m := &Messenger{cfg: cfg, logger: slog.Default()}

	mem := memory.NewStore()
	var keys storage.KeyStore = mem
	var queue storage.QueueStore = mem

	if cfg.Storage.Keys == config.BackendPostgres {
		db, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		m.db = db

		pg := postgres.NewStore(db)
		if err := pg.Migrate(ctx); err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		keys = pg
	}

	if cfg.Storage.Queue == config.BackendRedis {
		m.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := m.redis.Ping(ctx).Err(); err != nil {
			m.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		queue = redisStore.NewQueueStore(m.redis)
	}

	m.bridge = agent.NewOllamaClient(agent.OllamaConfig{
		BaseURL:     cfg.Agent.BaseURL,
		Model:       cfg.Agent.Model,
		Timeout:     cfg.Agent.Timeout,
		Temperature: &cfg.Agent.Temperature,
		MaxTokens:   cfg.Agent.MaxTokens,
	})

	m.service = messenger.NewService(messenger.Deps{
		Keys:          keys,
		Conversations: mem,
		Messages:      mem,
		Queue:         queue,
		Bridge:        m.bridge,
		Logger:        m.logger,
	}, messenger.Config{
		AgentID:      cfg.Messenger.AgentID,
		DefaultModel: cfg.Agent.Model,
		DeleteWindow: cfg.Messenger.DeleteWindow,
		HandoffDelay: cfg.Messenger.HandoffDelay,
		HistoryLimit: cfg.Messenger.HistoryLimit,
		DefaultLimit: cfg.Messenger.DefaultLimit,
		MaxLimit:     cfg.Messenger.MaxLimit,
	})

	m.logger.Info("Messenger initialised",
		"keys", cfg.Storage.Keys,
		"queue", cfg.Storage.Queue,
		"agent_url", cfg.Agent.BaseURL,
		"model", cfg.Agent.Model)
	return m, nil
}

// RegisterRoutes adds the messenger routes to an existing router.
// If authMiddleware is nil, it will use the built-in JWT validation
func (m *Messenger) RegisterRoutes(router *mux.Router, authMiddleware func(http.Handler) http.Handler) {
	router.HandleFunc("/health", m.healthCheck).Methods("GET")

	api := router.PathPrefix("/api/messenger").Subrouter()
	if authMiddleware != nil {
		api.Use(authMiddleware)
	} else {
		api.Use(middleware.NewAuthMiddleware(m.cfg.JWT.Secret, m.cfg.JWT.Issuer))
	}
	handlers.Register(api, m.service, m.bridge)
}

// Router builds a standalone router with CORS and the messenger routes.
func (m *Messenger) Router() *mux.Router {
	r := mux.NewRouter()
	origins := m.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = middleware.DefaultAllowedOrigins
	}
	r.Use(middleware.CORS(origins))
	m.RegisterRoutes(r, nil)
	return r
}

func (m *Messenger) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := m.Ping(r.Context()); err != nil {
		m.logger.Warn("Health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Storage unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// Ping checks the external storage backends in use.
func (m *Messenger) Ping(ctx context.Context) error {
	if m.db != nil {
		if err := m.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if m.redis != nil {
		if err := m.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// Service returns the underlying messenger service
func (m *Messenger) Service() *messenger.Service {
	return m.service
}

// ValidateSetup checks if the messenger is properly configured
func (m *Messenger) ValidateSetup() error {
	if m.cfg.JWT.Secret == "" {
		return &ValidationError{Message: "JWT secret is not configured"}
	}
	if m.service == nil {
		return &ValidationError{Message: "messenger service is not initialised"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Close stops pending timers and releases backend connections.
func (m *Messenger) Close() error {
	if m.service != nil {
		m.service.Close()
	}
	var errs []error
	if m.db != nil {
		errs = append(errs, m.db.Close())
	}
	if m.redis != nil {
		errs = append(errs, m.redis.Close())
	}
	return errors.Join(errs...)
}
