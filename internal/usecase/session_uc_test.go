//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/domain/ports/adapter"
	"sentinel-moderation/internal/usecase"
)

func newStore(mock *MockClassifier) usecase.SessionStore {
	return usecase.NewSessionStore(newClassifier(mock), newTestLogger())
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh store is empty", func(t *testing.T) {
		snap := newStore(NewMockClassifier()).Snapshot()
		if len(snap.History) != 0 || snap.Current != nil || snap.Pending || snap.LastError != "" {
			t.Fatalf("unexpected initial state %+v", snap)
		}
	})

	t.Run("successes are prepended and become current", func(t *testing.T) {
		store := newStore(NewMockClassifier())
		for i := 1; i <= 3; i++ {
			if _, err := store.Submit(ctx, fmt.Sprintf("text %d", i)); err != nil {
				t.Fatalf("submit %d: %v", i, err)
			}
		}
		snap := store.Snapshot()
		if len(snap.History) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(snap.History))
		}
		for i, want := range []string{"text 3", "text 2", "text 1"} {
			if snap.History[i].Text != want {
				t.Errorf("history[%d] = %q, want %q", i, snap.History[i].Text, want)
			}
		}
		if snap.Current == nil || snap.Current.ID != snap.History[0].ID {
			t.Errorf("current must be the newest entry")
		}
		if snap.Pending || snap.LastError != "" {
			t.Errorf("expected settled state, got %+v", snap)
		}
		seen := map[string]bool{}
		for _, r := range snap.History {
			if seen[r.ID] {
				t.Errorf("duplicate id %s", r.ID)
			}
			seen[r.ID] = true
		}
	})

	t.Run("failure surfaces a message and leaves history and current alone", func(t *testing.T) {
		mock := NewMockClassifier()
		store := newStore(mock)
		first, err := store.Submit(ctx, "first")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		mock.ClassifyFunc = func(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			return adapter.ClassifyResponse{}, errors.New("503 service unavailable")
		}
		_, err = store.Submit(ctx, "Hello")
		var ce *domain.ClassificationError
		if !errors.As(err, &ce) {
			t.Fatalf("expected ClassificationError, got %v", err)
		}

		snap := store.Snapshot()
		if snap.Pending {
			t.Errorf("pending must be cleared after failure")
		}
		if snap.LastError == "" {
			t.Errorf("expected a user-visible error message")
		}
		if len(snap.History) != 1 || snap.Current == nil || snap.Current.ID != first.ID {
			t.Errorf("history/current changed on failure: %+v", snap)
		}
	})

	t.Run("next submit clears the previous error", func(t *testing.T) {
		mock := NewMockClassifier()
		mock.ClassifyFunc = func(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			return adapter.ClassifyResponse{}, errors.New("boom")
		}
		store := newStore(mock)
		_, _ = store.Submit(ctx, "one")
		mock.ClassifyFunc = nil
		if _, err := store.Submit(ctx, "two"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap := store.Snapshot(); snap.LastError != "" {
			t.Errorf("lastError must be cleared, got %q", snap.LastError)
		}
	})

	t.Run("invalid input changes nothing", func(t *testing.T) {
		mock := NewMockClassifier()
		store := newStore(mock)
		_, _ = store.Submit(ctx, "kept")
		before := store.Snapshot()

		_, err := store.Submit(ctx, "   ")
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		after := store.Snapshot()
		if len(after.History) != len(before.History) || after.Current.ID != before.Current.ID ||
			after.Pending || after.LastError != before.LastError {
			t.Errorf("state changed on invalid input: %+v", after)
		}
		if mock.CallCount() != 1 {
			t.Errorf("invalid input must not reach the service")
		}
	})

	t.Run("submit while pending is rejected", func(t *testing.T) {
		mock := NewMockClassifier()
		started := make(chan struct{})
		release := make(chan struct{})
		mock.ClassifyFunc = func(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			close(started)
			<-release
			return verdictResponse("Hate Speech", 0.9, "x", []string{"k"}), nil
		}
		store := newStore(mock)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Submit(ctx, "slow")
		}()
		<-started

		if !store.Snapshot().Pending {
			t.Errorf("store must be pending while the call is in flight")
		}
		if _, err := store.Submit(ctx, "second"); !errors.Is(err, domain.ErrRequestPending) {
			t.Errorf("expected ErrRequestPending, got %v", err)
		}
		close(release)
		wg.Wait()

		snap := store.Snapshot()
		if snap.Pending || len(snap.History) != 1 || mock.CallCount() != 1 {
			t.Errorf("unexpected final state %+v (calls=%d)", snap, mock.CallCount())
		}
	})

	t.Run("caller cancellation does not abort an issued request", func(t *testing.T) {
		mock := NewMockClassifier()
		cctx, cancel := context.WithCancel(ctx)
		mock.ClassifyFunc = func(callCtx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			cancel()
			select {
			case <-callCtx.Done():
				return adapter.ClassifyResponse{}, callCtx.Err()
			case <-time.After(10 * time.Millisecond):
			}
			return verdictResponse("Safe / Neutral", 0.8, "ok", nil), nil
		}
		store := newStore(mock)
		if _, err := store.Submit(cctx, "hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.History()) != 1 {
			t.Fatalf("result must be recorded")
		}
	})

	t.Run("select from history only moves current", func(t *testing.T) {
		mock := NewMockClassifier()
		store := newStore(mock)
		first, _ := store.Submit(ctx, "a")
		_, _ = store.Submit(ctx, "b")
		mock.ClassifyFunc = func(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			return adapter.ClassifyResponse{}, errors.New("down")
		}
		_, _ = store.Submit(ctx, "c")
		before := store.Snapshot()

		got, err := store.SelectFromHistory(first.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		after := store.Snapshot()
		if got.ID != first.ID || after.Current.ID != first.ID {
			t.Errorf("current not moved to selected entry")
		}
		if len(after.History) != len(before.History) || after.History[0].ID != before.History[0].ID {
			t.Errorf("history changed on select")
		}
		if after.LastError != before.LastError || after.LastError == "" {
			t.Errorf("lastError must be untouched by select")
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		store := newStore(NewMockClassifier())
		if _, err := store.SelectFromHistory("nope"); !errors.Is(err, domain.ErrResultNotFound) {
			t.Errorf("select: expected ErrResultNotFound, got %v", err)
		}
		if _, err := store.Find("nope"); !errors.Is(err, domain.ErrResultNotFound) {
			t.Errorf("find: expected ErrResultNotFound, got %v", err)
		}
	})

	t.Run("clear current keeps history", func(t *testing.T) {
		store := newStore(NewMockClassifier())
		_, _ = store.Submit(ctx, "a")
		store.ClearCurrent()
		snap := store.Snapshot()
		if snap.Current != nil || len(snap.History) != 1 {
			t.Errorf("unexpected state after clear %+v", snap)
		}
	})

	t.Run("returned entries are copies", func(t *testing.T) {
		mock := NewMockClassifier()
		mock.ClassifyFunc = func(ctx context.Context, m string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
			return verdictResponse("Offensive Language", 0.6, "x", []string{"darn"}), nil
		}
		store := newStore(mock)
		res, _ := store.Submit(ctx, "a")
		res.FlaggedKeywords[0] = "mutated"
		h := store.History()
		h[0].Category = model.CategoryUncertain
		if got := store.History()[0]; got.FlaggedKeywords[0] != "darn" || got.Category != model.CategoryOffensive {
			t.Errorf("stored entry was mutated through a returned value: %+v", got)
		}
	})
}
