package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacx/internal/orchestrator"
	"metacx/internal/types"
)

func testServer() http.Handler {
	return newServer(orchestrator.New(nil, nil), nil).routes()
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out types.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "ok", out.Status)
}

func TestCreateAgent(t *testing.T) {
	body := `{"user_prompt":"` + orchestrator.ExamplePrompt + `","language":"en-US","platform":"voiceowl"}`
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-agent", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	var out types.AgentCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.NotNil(t, out.AgentConfig)
	assert.NotEmpty(t, out.AgentConfig.AgentID)
	assert.NotEmpty(t, out.OpenAIToolsSchema)
	require.NotNil(t, out.RawAnalysis)
	assert.Equal(t, "healthcare", out.RawAnalysis.Domain)

	// Bodies are written without HTML escaping.
	assert.Contains(t, rec.Body.String(), "Appointment & Patient Support Agent")
	assert.NotContains(t, rec.Body.String(), `\u0026`)
}

func TestCreateAgentRejectsShortPrompt(t *testing.T) {
	body := `{"user_prompt":"   hi   ","language":"en-US","platform":"voiceowl"}`
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-agent", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var out types.AgentCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.Success)
	assert.Contains(t, out.Message, "user_prompt")
}

func TestCreateAgentRejectsBadEnum(t *testing.T) {
	body := `{"user_prompt":"An agent that books dentist appointments","language":"en-US","platform":"fax"}`
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-agent", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAgentRejectsBadJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/create-agent", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAgentMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/create-agent", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExampleEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	testServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/example", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out types.AgentCreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Success)
	require.NotNil(t, out.AgentConfig)
	assert.Equal(t, "rule_based", out.AgentConfig.Metadata["generation_mode"])
}

func TestCORSPreflight(t *testing.T) {
	h := withCORS(testServer())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/create-agent", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
