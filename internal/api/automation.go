package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
)

// handleRun starts an automation run. The call returns once the
// subprocess is launched; progress and the final outcome flow through
// the SSE stream.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var cfg core.RunConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := s.automation.Start(r.Context(), cfg)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, status)
}

// handleStop cancels the active run. Stopping while idle succeeds.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	stopped, err := s.automation.Stop(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.automation.Status())
}

func (s *Server) handleLastResult(w http.ResponseWriter, _ *http.Request) {
	result := s.automation.LastResult()
	if result == nil {
		respondError(w, http.StatusNotFound, "no finished runs")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// handleGetConfig returns the remembered configuration, or 404 when the
// user never asked to be remembered.
func (s *Server) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	cfg, err := s.automation.LoadPersistentConfig()
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if cfg == nil {
		respondError(w, http.StatusNotFound, "no saved configuration")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, "run history not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.history.List(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if runs == nil {
		runs = []core.RunResult{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, "run history not configured")
		return
	}

	runID := chi.URLParam(r, "runID")
	run, err := s.history.Get(r.Context(), runID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, run)
}
