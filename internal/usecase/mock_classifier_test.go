//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain/ports/adapter"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// MockClassifier is a function-field mock of adapter.ClassifierAdapter.
type MockClassifier struct {
	ClassifyFunc   func(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error)
	ListModelsFunc func(ctx context.Context) ([]string, error)

	mu        sync.Mutex
	Calls     int
	LastReq   adapter.ClassifyRequest
	LastModel string
}

func NewMockClassifier() *MockClassifier { return &MockClassifier{} }

func (m *MockClassifier) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	m.mu.Lock()
	m.Calls++
	m.LastReq = req
	m.LastModel = model
	m.mu.Unlock()
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, model, req)
	}
	return verdictResponse("Safe / Neutral", 0.9, "Harmless.", nil), nil
}

func (m *MockClassifier) ListModels(ctx context.Context) ([]string, error) {
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return []string{"mock-model"}, nil
}

func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// verdictResponse renders a well-formed service reply.
func verdictResponse(category string, confidence float64, explanation string, keywords []string) adapter.ClassifyResponse {
	kw := "[]"
	if len(keywords) > 0 {
		kw = "["
		for i, k := range keywords {
			if i > 0 {
				kw += ","
			}
			kw += fmt.Sprintf("%q", k)
		}
		kw += "]"
	}
	raw := fmt.Sprintf(`{"category":%q,"confidence":%g,"explanation":%q,"flaggedKeywords":%s}`, category, confidence, explanation, kw)
	return adapter.ClassifyResponse{
		Raw:      raw,
		Provider: "mock",
		Model:    "mock-model",
		Usage:    adapter.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// sequenceIDs returns deterministic ids id-1, id-2, ...
func sequenceIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
