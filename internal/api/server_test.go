package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otc-triage-server/internal/dataset"
	"github.com/otc-triage-server/internal/domain"
	"github.com/otc-triage-server/internal/paraphrase"
	"github.com/otc-triage-server/internal/service"
	"github.com/otc-triage-server/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := dataset.NewEmbeddedStore(logger)
	require.NoError(t, err)

	triage, err := service.NewTriage(logger, store, 16)
	require.NoError(t, err)

	sessions := session.NewManager(logger, domain.SessionConfig{
		TTL:         time.Minute,
		MaxSessions: 100,
	})
	pp := paraphrase.NewClient(logger, domain.ParaphraseConfig{})

	cfg := &domain.Config{
		Server:  domain.ServerConfig{Host: "127.0.0.1", Port: 0},
		Logging: domain.LoggingConfig{Level: "error"},
	}
	return NewServer(cfg, logger, triage, sessions, pp)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestConditionsEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server.Handler(), http.MethodGet, "/api/v1/conditions", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	conditions, ok := body["conditions"].([]any)
	require.True(t, ok)
	assert.Len(t, conditions, 5)
}

func TestSessionConversationFlow(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	rec, body := doJSON(t, handler, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	sessionID, ok := body["session_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, sessionID)

	turn, ok := body["turn"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, turn["prompt"])

	path := fmt.Sprintf("/api/v1/sessions/%s/messages", sessionID)
	rec, body = doJSON(t, handler, http.MethodPost, path, map[string]string{
		"text": "I've had a headache for 2 days",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	turn, ok = body["turn"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, turn["prompt"], "Who is this for?")

	// Walk the remaining turns to a recommendation.
	for _, text := range []string{"adult", "nothing", "none", "no, none of those"} {
		rec, body = doJSON(t, handler, http.MethodPost, path, map[string]string{"text": text})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	turn, ok = body["turn"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, turn["done"])

	recommendation, ok := turn["recommendation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Headache (tension-type)", recommendation["title"])
}

func TestMessageUnknownSession(t *testing.T) {
	server := newTestServer(t)

	rec, _ := doJSON(t, server.Handler(), http.MethodPost,
		"/api/v1/sessions/not-a-session/messages", map[string]string{"text": "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvaluateEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/evaluate", domain.EvaluatePayload{
		Condition:   "sore-throat-acute",
		Who:         domain.WhoAdult,
		Duration:    domain.Duration1To3Days,
		ActionTaken: "none",
		CurrentMeds: "none",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	recommendation, ok := body["recommendation"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sore throat", recommendation["title"])

	advice, ok := recommendation["advice"].([]any)
	require.True(t, ok)
	assert.Len(t, advice, 3)
}

func TestEvaluateEndpointErrors(t *testing.T) {
	server := newTestServer(t)
	handler := server.Handler()

	t.Run("unknown condition", func(t *testing.T) {
		rec, body := doJSON(t, handler, http.MethodPost, "/api/v1/evaluate", domain.EvaluatePayload{
			Condition: "gout",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		errBody, ok := body["error"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, domain.ErrUnknownCondition, errBody["code"])
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluate", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing condition", func(t *testing.T) {
		rec, _ := doJSON(t, handler, http.MethodPost, "/api/v1/evaluate", domain.EvaluatePayload{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestParaphraseDisabledStillServes(t *testing.T) {
	server := newTestServer(t)

	rec, body := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/evaluate?paraphrase=true",
		domain.EvaluatePayload{
			Condition: "headache-simple",
			Who:       domain.WhoAdult,
		})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "recommendation")
	assert.NotContains(t, body, "summary")
}
