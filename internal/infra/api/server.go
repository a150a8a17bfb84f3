package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/infra/logging"
	"sentinel-moderation/internal/usecase"
)

// Server exposes the session store, the aggregator and the model list as a
// JSON API under /api/v1.
type Server struct {
	store      usecase.SessionStore
	stats      usecase.StatsUseCase
	classifier usecase.ClassifyUseCase
	log        *zerolog.Logger
}

func NewServer(store usecase.SessionStore, stats usecase.StatsUseCase, classifier usecase.ClassifyUseCase, logger *zerolog.Logger) *Server {
	return &Server{store: store, stats: stats, classifier: classifier, log: logger}
}

// Register attaches the API routes and the health probe to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/session", s.handleSession)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryGet)
		r.Post("/history/{id}/select", s.handleSelect)
		r.Delete("/current", s.handleClearCurrent)
		r.Get("/stats", s.handleStats)
		r.Get("/models", s.handleModels)
	})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type sessionResponse struct {
	Current      *model.AnalysisResult `json:"current"`
	Pending      bool                  `json:"pending"`
	LastError    string                `json:"lastError,omitempty"`
	HistoryCount int                   `json:"historyCount"`
}

type statsResponse struct {
	Counts      map[string]int     `json:"counts"`
	Uncertain   int                `json:"uncertain"`
	Total       int                `json:"total"`
	FlaggedRate float64            `json:"flaggedRate"`
	Series      []model.StatsPoint `json:"series"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.store.Submit(r.Context(), req.Text)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			logging.With(r.Context(), s.log).Warn().Err(err).Int("status", status).Msg("analyze failed")
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, sessionResponse{
		Current:      snap.Current,
		Pending:      snap.Pending,
		LastError:    snap.LastError,
		HistoryCount: len(snap.History),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	history := s.store.History()
	writeJSON(w, http.StatusOK, struct {
		Data  []model.AnalysisResult `json:"data"`
		Total int                    `json:"total"`
	}{Data: history, Total: len(history)})
}

func (s *Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.Find(chi.URLParam(r, "id"))
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	res, err := s.store.SelectFromHistory(chi.URLParam(r, "id"))
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClearCurrent(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearCurrent()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	sum := s.stats.Summary()
	counts := make(map[string]int, len(sum.Counts))
	for c, n := range sum.Counts {
		counts[string(c)] = n
	}
	writeJSON(w, http.StatusOK, statsResponse{
		Counts:      counts,
		Uncertain:   sum.Uncertain,
		Total:       sum.Total,
		FlaggedRate: sum.FlaggedRate,
		Series:      sum.Series,
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.classifier.ListModels(r.Context())
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("list models failed")
		writeError(w, http.StatusBadGateway, "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Data []string `json:"data"`
	}{Data: models})
}

// statusFor maps use case errors onto HTTP status codes and the message shown
// to the client.
func statusFor(err error) (int, string) {
	var ce *domain.ClassificationError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrRequestPending):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrResultNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &ce):
		return http.StatusBadGateway, ce.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
