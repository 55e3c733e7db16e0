package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cpap-support-agent/server/internal/agent/model"
	"github.com/cpap-support-agent/server/internal/agent/runner"
	errx "github.com/cpap-support-agent/server/internal/core/error"
	logx "github.com/cpap-support-agent/server/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func newThreadID() string {
	return uuid.NewString()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) handleRunAgent(w http.ResponseWriter, r *http.Request) {
	var in model.QueryInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&in); err != nil {
		logx.Warn().Err(err).Msg("invalid run_agent body")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(in.ThreadID) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "thread_id is required"})
		return
	}

	resp, err := s.agent.Run(r.Context(), in.ThreadID, in.UserInput)
	if err != nil {
		status := errx.Status(err)
		var execErr *runner.AgentExecutionError
		if errors.As(err, &execErr) && status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		logx.Error().Err(err).Str("thread_id", in.ThreadID).Int("status", status).Msg("run_agent failed")
		writeJSON(w, status, model.Response{Response: runner.FallbackResponse})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to write response")
	}
}
