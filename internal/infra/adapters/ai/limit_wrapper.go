package ai

import (
	"context"

	"sentinel-moderation/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ClassifierAdapter = (*limitedClassifier)(nil)

type limitedClassifier struct {
	inner adapter.ClassifierAdapter
	sem   chan struct{}
}

// NewLimitedClassifier caps in-flight Classify calls at maxConcurrent.
func NewLimitedClassifier(inner adapter.ClassifierAdapter, maxConcurrent int) adapter.ClassifierAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedClassifier{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedClassifier) ListModels(ctx context.Context) ([]string, error) {
	return l.inner.ListModels(ctx)
}

func (l *limitedClassifier) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return adapter.ClassifyResponse{}, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Classify(ctx, model, req)
}
