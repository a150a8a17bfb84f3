//go:build !integration

package web_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/domain/ports/adapter"
	"sentinel-moderation/internal/infra/web"
	"sentinel-moderation/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type scriptedClassifier struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (s *scriptedClassifier) ListModels(ctx context.Context) ([]string, error) { return nil, nil }

func (s *scriptedClassifier) Classify(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return adapter.ClassifyResponse{}, s.err
	}
	raw := s.replies[0]
	s.replies = s.replies[1:]
	return adapter.ClassifyResponse{Raw: raw}, nil
}

func newDashboard(t *testing.T, ai *scriptedClassifier) (http.Handler, usecase.SessionStore) {
	t.Helper()
	classify := usecase.NewClassifyUseCase(ai, usecase.ClassifyOptions{Timeout: time.Second}, newTestLogger())
	store := usecase.NewSessionStore(classify, newTestLogger())
	srv, err := web.NewServer(store, usecase.NewStatsUseCase(store), newTestLogger())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	r := chi.NewRouter()
	srv.Register(r)
	return r, store
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

const (
	hateReply      = `{"category":"Hate Speech","confidence":0.956,"explanation":"Targets a group.","flaggedKeywords":["vermin"]}`
	offensiveReply = `{"category":"Offensive Language","confidence":0.8,"explanation":"Insult.","flaggedKeywords":["idiot"]}`
	safeReply      = `{"category":"Safe / Neutral","confidence":0.99,"explanation":"Encouraging.","flaggedKeywords":[]}`
)

func TestAnalyzePage(t *testing.T) {
	t.Run("empty session renders the form only", func(t *testing.T) {
		h, _ := newDashboard(t, &scriptedClassifier{})
		rec := get(h, "/")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "Analysis Engine") || strings.Contains(body, `id="current"`) {
			t.Errorf("unexpected body")
		}
	})

	t.Run("submit redirects and shows the themed result", func(t *testing.T) {
		h, _ := newDashboard(t, &scriptedClassifier{replies: []string{hateReply}})
		rec := postForm(h, "/analyze", url.Values{"text": {"some hateful text"}})
		if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/analyze" {
			t.Fatalf("expected redirect to /analyze, got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		body := get(h, "/analyze").Body.String()
		for _, want := range []string{"Danger: Hate Speech", "96%", "vermin", "Targets a group."} {
			if !strings.Contains(body, want) {
				t.Errorf("page is missing %q", want)
			}
		}
		if !strings.Contains(body, "Hate Speech: <strong>1</strong>") {
			t.Errorf("quick stats not updated")
		}
	})

	t.Run("blank submit keeps the draft and reports the problem", func(t *testing.T) {
		h, store := newDashboard(t, &scriptedClassifier{})
		rec := postForm(h, "/analyze", url.Values{"text": {"   "}})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `id="notice"`) {
			t.Errorf("expected notice")
		}
		if len(store.History()) != 0 {
			t.Errorf("history must stay empty")
		}
	})

	t.Run("service failure shows lastError", func(t *testing.T) {
		h, _ := newDashboard(t, &scriptedClassifier{err: errors.New("503")})
		rec := postForm(h, "/analyze", url.Values{"text": {"Hello"}})
		if rec.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, `id="last-error"`) || !strings.Contains(body, "Hello") {
			t.Errorf("expected error message and kept draft")
		}
	})
}

func TestHistoryPage(t *testing.T) {
	h, store := newDashboard(t, &scriptedClassifier{replies: []string{safeReply, offensiveReply}})

	if body := get(h, "/history").Body.String(); !strings.Contains(body, "No records found") {
		t.Errorf("expected empty state")
	}

	postForm(h, "/analyze", url.Values{"text": {"first"}})
	postForm(h, "/analyze", url.Values{"text": {"second"}})

	body := get(h, "/history").Body.String()
	if strings.Index(body, "second") > strings.Index(body, "first") {
		t.Errorf("history must be newest first")
	}
	if !strings.Contains(body, "99%") || !strings.Contains(body, "80%") {
		t.Errorf("expected confidence percentages")
	}

	oldest := store.History()[1]
	rec := postForm(h, "/history/"+oldest.ID+"/select", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if cur := store.Snapshot().Current; cur == nil || cur.ID != oldest.ID {
		t.Errorf("selected entry must become current")
	}
	if !strings.Contains(get(h, "/analyze").Body.String(), "Safe Content") {
		t.Errorf("selected result not rendered")
	}

	if rec := postForm(h, "/history/missing/select", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestStatsPage(t *testing.T) {
	h, _ := newDashboard(t, &scriptedClassifier{replies: []string{hateReply, offensiveReply, safeReply}})

	if body := get(h, "/stats").Body.String(); !strings.Contains(body, "Insufficient data") || !strings.Contains(body, `id="flagged-rate">0%`) {
		t.Errorf("unexpected empty stats page")
	}

	for _, text := range []string{"a", "b", "c"} {
		postForm(h, "/analyze", url.Values{"text": {text}})
	}
	body := get(h, "/stats").Body.String()
	if !strings.Contains(body, `id="total">3<`) || !strings.Contains(body, `id="flagged-rate">67%`) {
		t.Errorf("unexpected totals")
	}
	for _, color := range []string{"#ef4444", "#f59e0b", "#10b981"} {
		if !strings.Contains(body, color) {
			t.Errorf("missing bar color %s", color)
		}
	}
}

func TestViewHelpers(t *testing.T) {
	themes := map[model.Category]string{
		model.CategoryHateSpeech: "Danger: Hate Speech",
		model.CategoryOffensive:  "Warning: Offensive Language",
		model.CategorySafe:       "Safe Content",
		model.CategoryUncertain:  "Neutral",
	}
	for c, want := range themes {
		if got := web.ThemeFor(c).Label; got != want {
			t.Errorf("ThemeFor(%q) = %q, want %q", c, got, want)
		}
	}
	if got := web.Percent(0.956); got != "96%" {
		t.Errorf("Percent = %q", got)
	}
	if got := web.CharCount("héllo"); got != 5 {
		t.Errorf("CharCount = %d", got)
	}
}
