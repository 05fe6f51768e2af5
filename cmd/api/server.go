package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"metacx/internal/orchestrator"
	"metacx/internal/types"
	"metacx/internal/util/jsonutil"
)

const apiVersion = "1.0.0"

type server struct {
	pipeline *orchestrator.Orchestrator
	log      *zap.Logger
}

func newServer(pipeline *orchestrator.Orchestrator, log *zap.Logger) *server {
	if log == nil {
		log = zap.NewNop()
	}
	return &server{pipeline: pipeline, log: log}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/create-agent", s.handleCreateAgent)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/example", s.handleExample)
	return mux
}

func (s *server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req types.AgentCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, types.AgentCreateResponse{
			Success: false,
			Message: "invalid json body",
		})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, types.AgentCreateResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	res, err := s.pipeline.CreateAgent(r.Context(), req)
	if err != nil {
		// Input errors were handled above; what is left is a config that
		// failed validation after merge.
		status := http.StatusInternalServerError
		if errors.Is(err, types.ErrPromptTooShort) {
			status = http.StatusBadRequest
		}
		s.log.Error("agent generation failed", zap.Error(err))
		writeJSON(w, status, types.AgentCreateResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, types.AgentCreateResponse{
		Success:           true,
		Message:           "agent generated",
		AgentConfig:       res.Config,
		OpenAIToolsSchema: res.ToolSchemas,
		RawAnalysis:       res.Brief,
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, types.HealthResponse{Status: "ok", Version: apiVersion})
}

func (s *server) handleExample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	res, err := orchestrator.Example()
	if err != nil {
		s.log.Error("example generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, types.AgentCreateResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, types.AgentCreateResponse{
		Success:           true,
		Message:           "example agent",
		AgentConfig:       res.Config,
		OpenAIToolsSchema: res.ToolSchemas,
		RawAnalysis:       res.Brief,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "response encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
