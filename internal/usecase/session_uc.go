package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/infra/logging"
	"sentinel-moderation/internal/infra/metrics"
)

// Compile-time check
var _ SessionStore = (*sessionStore)(nil)

// SessionStore owns the only mutable state of the application: the result
// history (newest first), the current result, the pending flag and the last
// error. History grows without bound for the lifetime of the process.
type SessionStore interface {
	// Submit runs one classification. Invalid input is rejected before any
	// state change; a submit while another is in flight fails with
	// domain.ErrRequestPending.
	Submit(ctx context.Context, text string) (*model.AnalysisResult, error)
	SelectFromHistory(id string) (*model.AnalysisResult, error)
	ClearCurrent()
	Find(id string) (*model.AnalysisResult, error)
	History() []model.AnalysisResult
	Snapshot() model.SessionSnapshot
}

type sessionStore struct {
	classifier ClassifyUseCase
	log        *zerolog.Logger

	mu        sync.RWMutex
	entries   []model.AnalysisResult // oldest first
	index     map[string]int         // id -> position in entries
	current   *model.AnalysisResult
	pending   bool
	lastError string
}

func NewSessionStore(classifier ClassifyUseCase, logger *zerolog.Logger) *sessionStore {
	return &sessionStore{
		classifier: classifier,
		log:        logger,
		index:      make(map[string]int),
	}
}

func (s *sessionStore) Submit(ctx context.Context, text string) (*model.AnalysisResult, error) {
	if err := ValidateText(text); err != nil {
		metrics.IncFailure("invalid_input")
		return nil, err
	}
	if err := s.begin(); err != nil {
		metrics.IncFailure("pending")
		logging.With(ctx, s.log).Warn().Msg("submit rejected: analysis already pending")
		return nil, err
	}

	// An issued request is never aborted; the classifier bounds the wait.
	res, err := s.classifier.Classify(context.WithoutCancel(ctx), text)
	if err != nil {
		metrics.IncFailure("classification")
		s.fail(userMessage(err))
		return nil, err
	}
	s.succeed(*res)
	out := res.Clone()
	return &out, nil
}

func (s *sessionStore) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return domain.ErrRequestPending
	}
	s.pending = true
	s.lastError = ""
	return nil
}

func (s *sessionStore) succeed(r model.AnalysisResult) {
	r = r.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[r.ID] = len(s.entries)
	s.entries = append(s.entries, r)
	cur := r.Clone()
	s.current = &cur
	s.pending = false
	s.lastError = ""
}

func (s *sessionStore) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	s.lastError = msg
}

func (s *sessionStore) SelectFromHistory(id string) (*model.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	cur := s.entries[i].Clone()
	s.current = &cur
	out := cur.Clone()
	return &out, nil
}

func (s *sessionStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *sessionStore) Find(id string) (*model.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return nil, domain.ErrResultNotFound
	}
	out := s.entries[i].Clone()
	return &out, nil
}

func (s *sessionStore) History() []model.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyLocked()
}

func (s *sessionStore) historyLocked() []model.AnalysisResult {
	out := make([]model.AnalysisResult, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i].Clone())
	}
	return out
}

func (s *sessionStore) Snapshot() model.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := model.SessionSnapshot{
		History:   s.historyLocked(),
		Pending:   s.pending,
		LastError: s.lastError,
	}
	if s.current != nil {
		cur := s.current.Clone()
		snap.Current = &cur
	}
	return snap
}

// userMessage collapses any classification-layer error into one message.
func userMessage(err error) string {
	var ce *domain.ClassificationError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return msgServiceFailed
}
