package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/docgate/docgate/internal/providers"
)

func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Liveness
	mux.HandleFunc("GET /health", s.handleHealth)

	// Document AI API
	mux.HandleFunc("POST /api/v1/ocr", s.handleOCR)
	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/v1/providers", s.handleProviders)
	mux.HandleFunc("GET /api/v1/providers/health", s.handleProviderHealth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ocrRequest struct {
	Image string `json:"image"`
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	var req ocrRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Image == "" {
		writeJSONError(w, http.StatusBadRequest, "image is required")
		return
	}

	result, err := s.orch.ExtractText(r.Context(), req.Image)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.orch.AnalyzeDocument(r.Context(), req.Text)
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": s.orch.AvailableProviders(),
	})
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	health := s.orch.ProviderHealth(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": health,
	})
}

// providerAttemptView is the wire form of a per-provider failure in an
// aggregate error response.
type providerAttemptView struct {
	Provider string `json:"provider"`
	Attempts int    `json:"attempts"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// writeUpstreamError maps orchestration errors to HTTP responses.
// Caller input problems become 400s; exhausted fallback chains become
// 502s with per-provider detail.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	if providers.IsKind(err, providers.KindInvalidInput) {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var agg *providers.AllProvidersFailedError
	if errors.As(err, &agg) {
		attempts := make([]providerAttemptView, 0, len(agg.Providers))
		for _, a := range agg.Providers {
			view := providerAttemptView{
				Provider: a.Provider,
				Attempts: a.Attempts,
				Skipped:  a.Skipped,
				Reason:   a.Reason,
			}
			if a.Err != nil {
				view.Error = a.Err.Error()
			}
			attempts = append(attempts, view)
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":     providers.AggregateMessage,
			"operation": agg.Operation,
			"providers": attempts,
		})
		return
	}

	s.logger.Error("request failed", "error", err)
	writeJSONError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
