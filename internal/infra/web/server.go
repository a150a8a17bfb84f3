package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/infra/logging"
	"sentinel-moderation/internal/usecase"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"theme":     ThemeFor,
	"percent":   Percent,
	"time":      FormatTime,
	"charCount": CharCount,
}

// Server renders the dashboard: analyze, history and stats tabs.
type Server struct {
	store usecase.SessionStore
	stats usecase.StatsUseCase
	pages map[string]*template.Template
	log   *zerolog.Logger
}

func NewServer(store usecase.SessionStore, stats usecase.StatsUseCase, logger *zerolog.Logger) (*Server, error) {
	pages := make(map[string]*template.Template, 3)
	for _, name := range []string{"analyze", "history", "stats"} {
		t, err := template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = t
	}
	return &Server{store: store, stats: stats, pages: pages, log: logger}, nil
}

// Register attaches the dashboard routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.handleAnalyzePage)
	r.Get("/analyze", s.handleAnalyzePage)
	r.Post("/analyze", s.handleAnalyzeSubmit)
	r.Get("/history", s.handleHistoryPage)
	r.Post("/history/{id}/select", s.handleSelect)
	r.Get("/stats", s.handleStatsPage)
}

func (s *Server) handleAnalyzePage(w http.ResponseWriter, r *http.Request) {
	s.renderAnalyze(w, r, http.StatusOK, "", "")
}

// handleAnalyzeSubmit redirects back to the analyze tab on success. Failures
// re-render the form with the draft kept.
func (s *Server) handleAnalyzeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderAnalyze(w, r, http.StatusBadRequest, "", "invalid form")
		return
	}
	text := r.PostFormValue("text")

	_, err := s.store.Submit(r.Context(), text)
	var ce *domain.ClassificationError
	switch {
	case err == nil:
		http.Redirect(w, r, "/analyze", http.StatusSeeOther)
	case errors.Is(err, domain.ErrInvalidInput):
		s.renderAnalyze(w, r, http.StatusBadRequest, text, err.Error())
	case errors.Is(err, domain.ErrRequestPending):
		s.renderAnalyze(w, r, http.StatusConflict, text, err.Error())
	case errors.As(err, &ce):
		// lastError on the store carries the message
		s.renderAnalyze(w, r, http.StatusBadGateway, text, "")
	default:
		logging.With(r.Context(), s.log).Error().Err(err).Msg("analyze submit failed")
		s.renderAnalyze(w, r, http.StatusInternalServerError, text, "internal error")
	}
}

func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "history", historyView{
		Tab:     "history",
		History: s.store.History(),
		Quick:   quickFrom(s.stats.Summary()),
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.SelectFromHistory(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/analyze", http.StatusSeeOther)
}

func (s *Server) handleStatsPage(w http.ResponseWriter, r *http.Request) {
	sum := s.stats.Summary()
	s.render(w, r, http.StatusOK, "stats", statsView{
		Tab:         "stats",
		Total:       sum.Total,
		FlaggedRate: sum.FlaggedRate,
		Bars:        barsFrom(sum),
		Quick:       quickFrom(sum),
	})
}

func (s *Server) renderAnalyze(w http.ResponseWriter, r *http.Request, status int, draft, notice string) {
	snap := s.store.Snapshot()
	s.render(w, r, status, "analyze", analyzeView{
		Tab:       "analyze",
		Draft:     draft,
		Notice:    notice,
		Current:   snap.Current,
		Pending:   snap.Pending,
		LastError: snap.LastError,
		Quick:     quickFrom(summaryOf(snap)),
	})
}

func summaryOf(snap model.SessionSnapshot) model.StatsSummary {
	return usecase.Aggregate(snap.History)
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Str("page", page).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
