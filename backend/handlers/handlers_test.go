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

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efchatnet/efcare/backend/agent"
	"github.com/efchatnet/efcare/backend/messenger"
	"github.com/efchatnet/efcare/backend/middleware"
	"github.com/efchatnet/efcare/backend/models"
	"github.com/efchatnet/efcare/backend/storage/memory"
)

type stubBridge struct {
	reply string
	err   error
}

func (b *stubBridge) Complete(ctx context.Context, req agent.Request) (*agent.Reply, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &agent.Reply{Text: b.reply}, nil
}

type stubHealth struct{ status agent.HealthStatus }

func (h stubHealth) Health(ctx context.Context) agent.HealthStatus { return h.status }

// asUser stands in for the JWT middleware: the X-Test-User header
// becomes the authenticated user.
func asUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := r.Header.Get("X-Test-User"); user != "" {
			r = r.WithContext(middleware.WithUserID(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

type testServer struct {
	t      *testing.T
	router *mux.Router
	bridge *stubBridge
}

func newTestServer(t *testing.T, health HealthChecker) *testServer {
	t.Helper()
	store := memory.NewStore()
	bridge := &stubBridge{reply: "Please follow your exercise plan."}
	svc := messenger.NewService(messenger.Deps{
		Keys:          store,
		Conversations: store,
		Messages:      store,
		Queue:         store,
		Bridge:        bridge,
	}, messenger.Config{})
	t.Cleanup(svc.Close)

	router := mux.NewRouter()
	api := router.PathPrefix("/api/messenger").Subrouter()
	api.Use(asUser)
	Register(api, svc, health)
	return &testServer{t: t, router: router, bridge: bridge}
}

func (s *testServer) do(method, path, user string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/messenger"+path, &buf)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestKeyEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/keys/p1", "p2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/keys", "p1", models.KeyRegistration{PublicKey: "pk-1", Fingerprint: "fp-1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodPost, "/keys", "p1", models.KeyRegistration{PublicKey: "pk-2", Fingerprint: "fp-2"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/keys/p1", "p2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pk-2", decode[models.KeyRecord](t, rec).PublicKey)

	rec = s.do(http.MethodGet, "/keys/history", "p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.KeyRecord](t, rec), 2)

	rec = s.do(http.MethodPost, "/keys", "p1", models.KeyRegistration{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/keys", "", models.KeyRegistration{PublicKey: "pk", Fingerprint: "fp"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHumanPairFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/conversations/human", "p1", map[string]string{
		"clinician_id":   "doctor-1",
		"clinician_name": "Ivan Ivanov",
		"specialty":      "Orthopedic vertebrologist",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[models.Conversation](t, rec)
	assert.Equal(t, models.KindHumanPair, conv.Kind)

	base := "/conversations/" + conv.ID

	rec = s.do(http.MethodPost, base+"/messages/opaque", "p1", map[string]string{
		"ciphertext":        "Y2lwaGVy",
		"iv":                "aXY=",
		"salt":              "c2FsdA==",
		"sender_public_key": "cGs=",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	msg := decode[models.Message](t, rec)
	assert.Equal(t, models.OpaquePayload{Ciphertext: "Y2lwaGVy", IV: "aXY=", Salt: "c2FsdA==", SenderPublicKey: "cGs="}, msg.Payload)
	assert.Equal(t, models.MessageText, msg.MessageType)

	rec = s.do(http.MethodPost, base+"/messages/plain", "p1", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hello")

	rec = s.do(http.MethodGet, "/messages/undelivered", "doctor-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]models.Message](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, msg.ID, pending[0].ID)

	rec = s.do(http.MethodPost, "/messages/delivered", "doctor-1", map[string][]string{"message_ids": {msg.ID}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, base+"/read", "doctor-1", map[string]string{"last_read_message_id": msg.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, base+"/messages?limit=10", "doctor-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]models.Message](t, rec)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.StatusRead, msgs[0].Status)

	rec = s.do(http.MethodGet, base+"/messages", "stranger", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, base+"/messages?limit=abc", "p1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/messages/"+msg.ID, "doctor-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[successResponse](t, rec).Success)

	rec = s.do(http.MethodDelete, "/messages/"+msg.ID, "p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[successResponse](t, rec).Success)
}

func TestAssistedFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodPost, "/conversations/assisted", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	conv := decode[models.Conversation](t, rec)
	assert.True(t, conv.AgentActive)

	base := "/conversations/" + conv.ID

	rec = s.do(http.MethodPost, base+"/messages/plain", "P1", map[string]string{"text": "How long should I wear the brace daily?"})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[models.SendResult](t, rec)
	assert.True(t, result.AgentResponded)
	require.NotNil(t, result.AgentResponse)
	assert.True(t, result.AgentResponse.IsAgentResponse)
	assert.Equal(t, "Please follow your exercise plan.", result.AgentResponse.Text())

	rec = s.do(http.MethodPost, base+"/messages/opaque", "P1", map[string]string{"ciphertext": "secret"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	rec = s.do(http.MethodPost, base+"/agent", "P1", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[successResponse](t, rec).Success)

	rec = s.do(http.MethodGet, base+"/agent", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[models.AgentStatus](t, rec)
	assert.False(t, status.Active)
	assert.True(t, status.IsAssisted)

	rec = s.do(http.MethodPost, base+"/messages/plain", "P1", map[string]string{"text": "still there?"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.False(t, decode[models.SendResult](t, rec).AgentResponded)

	rec = s.do(http.MethodGet, base+"/agent", "someone-else", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/conversations", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Conversation](t, rec), 1)

	rec = s.do(http.MethodGet, "/stats", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Stats{TotalConversations: 1, TotalMessages: 3}, decode[models.Stats](t, rec))
}

func TestBridgeFailureStillStoresMessage(t *testing.T) {
	s := newTestServer(t, nil)
	s.bridge.err = errors.New("ollama down")

	rec := s.do(http.MethodPost, "/conversations/assisted", "P1", nil)
	conv := decode[models.Conversation](t, rec)

	rec = s.do(http.MethodPost, "/conversations/"+conv.ID+"/messages/plain", "P1", map[string]string{"text": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	result := decode[models.SendResult](t, rec)
	assert.False(t, result.AgentResponded)
	assert.Equal(t, "hi", result.Message.Text())
}

func TestSendToUnknownConversation(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodPost, "/conversations/missing/messages/plain", "P1", map[string]string{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteUnknownMessage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := s.do(http.MethodDelete, "/messages/missing", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[successResponse](t, rec).Success)
}

func TestCliniciansAndHealth(t *testing.T) {
	s := newTestServer(t, stubHealth{status: agent.HealthStatus{Available: true, Models: []string{"llama3.2"}}})

	rec := s.do(http.MethodGet, "/clinicians", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	roster := decode[[]models.Clinician](t, rec)
	require.NotEmpty(t, roster)
	assert.True(t, roster[len(roster)-1].IsAgent)

	rec = s.do(http.MethodGet, "/agent/health", "P1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[agent.HealthStatus](t, rec).Available)

	down := newTestServer(t, stubHealth{status: agent.HealthStatus{Error: "connection refused"}})
	rec = down.do(http.MethodGet, "/agent/health", "P1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	none := newTestServer(t, nil)
	rec = none.do(http.MethodGet, "/agent/health", "P1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
