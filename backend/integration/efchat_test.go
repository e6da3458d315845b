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

package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efchatnet/efcare/backend/config"
	"github.com/efchatnet/efcare/backend/middleware"
)

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Name: "efcare"},
		JWT:     config.JWTConfig{Secret: "test-secret", Issuer: "efchat"},
		Storage: config.StorageConfig{Keys: config.BackendMemory, Queue: config.BackendMemory},
		Agent:   config.AgentConfig{BaseURL: "http://127.0.0.1:1"},
	}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "efchat",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestStandaloneRouter(t *testing.T) {
	m, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.ValidateSetup())

	router := m.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/messenger/clinicians", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/messenger/clinicians", nil)
	req.Header.Set("Authorization", bearer(t, "p1"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/messenger/keys", bytes.NewBufferString(`{"public_key":"pk","fingerprint":"fp"}`))
	req.Header.Set("Authorization", bearer(t, "p1"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The agent service is unreachable in this setup.
	req = httptest.NewRequest(http.MethodGet, "/api/messenger/agent/health", nil)
	req.Header.Set("Authorization", bearer(t, "p1"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterRoutesWithHostMiddleware(t *testing.T) {
	m, err := New(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	host := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), "host-user")))
		})
	}

	router := mux.NewRouter()
	m.RegisterRoutes(router, host)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/messenger/conversations/assisted", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	conv, err := m.Service().ListForUser(context.Background(), "host-user")
	require.NoError(t, err)
	assert.Len(t, conv, 1)
}

func TestValidateSetupRequiresSecret(t *testing.T) {
	cfg := testConfig()
	m, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })

	cfg.JWT.Secret = ""
	var vErr *ValidationError
	assert.ErrorAs(t, m.ValidateSetup(), &vErr)
}
