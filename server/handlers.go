package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hupe1980/genmesh/core"
)

type executeResponse struct {
	Success bool `json:"success"`
	core.Outcome
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var configs map[string]core.UserConfig
	if err := s.decode(w, r, &configs); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if len(configs) == 0 {
		respondError(w, http.StatusBadRequest, errors.New("configuration event carries no identities"))
		return
	}
	s.svc.ConfigureAll(configs)
	respondJSON(w, http.StatusOK, map[string]any{"configured": len(configs)})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req core.GenerationRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.CallerID) == "" {
		respondError(w, http.StatusBadRequest, errors.New("user_id is required"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		respondError(w, http.StatusBadRequest, errors.New("prompt is required"))
		return
	}

	start := time.Now()
	out := s.svc.Execute(r.Context(), req)
	s.opts.Metrics.RecordGeneration(out, time.Since(start))
	if out.Err != nil {
		s.opts.Logger.Warn("Generation failed", "user_id", req.CallerID, "stage", out.Stage, "error", out.Err)
	}

	respondJSON(w, http.StatusOK, executeResponse{Success: out.Succeeded(), Outcome: out})
}

func (s *Server) handleLongTermMemory(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.LongTermMemory(r.Context())
	if err != nil {
		s.opts.Logger.Error("Loading long-term memory failed", "error", err)
		respondError(w, http.StatusInternalServerError, errors.New("long-term memory unavailable"))
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleSessionMemory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	records, err := s.svc.SessionMemory(sessionID)
	if err != nil {
		s.opts.Logger.Error("Loading session memory failed", "session_id", sessionID, "error", err)
		respondError(w, http.StatusInternalServerError, errors.New("session memory unavailable"))
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body: " + err.Error())
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, errorResponse{Error: err.Error(), Status: status})
}
