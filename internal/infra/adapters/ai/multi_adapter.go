package ai

import (
	"context"
	"strings"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/ports/adapter"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

var _ adapter.ClassifierAdapter = (*MultiClassifier)(nil)

type MultiClassifier struct {
	defaultProvider string
	byProvider      map[string]adapter.ClassifierAdapter
	modelToProvider map[string]string // model -> provider ("openai" | "gemini" | "anthropic")
}

// NewMultiClassifier does not inject any default model; it only knows a default provider.
// Each provider adapter is responsible for its own default model.
func NewMultiClassifier(
	defaultProvider string,
	byProvider map[string]adapter.ClassifierAdapter,
	modelToProvider map[string]string,
) *MultiClassifier {
	return &MultiClassifier{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiClassifier) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"), strings.HasPrefix(l, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(l, "claude"):
		return ProviderAnthropic
	default:
		return m.defaultProvider
	}
}

func (m *MultiClassifier) pick(model string) adapter.ClassifierAdapter {
	if a := m.byProvider[m.resolveProvider(model)]; a != nil {
		return a
	}
	// the default provider serves unknown routes when its peer is absent
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return a
	}
	return nil
}

func (m *MultiClassifier) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.modelToProvider)+len(m.byProvider))

	for model, prov := range m.modelToProvider {
		if m.byProvider[strings.ToLower(prov)] == nil {
			continue
		}
		if _, ok := seen[model]; !ok {
			seen[model] = struct{}{}
			out = append(out, model)
		}
	}

	for _, a := range m.byProvider {
		list, err := a.ListModels(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (m *MultiClassifier) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	a := m.pick(model)
	if a == nil {
		return adapter.ClassifyResponse{}, domain.ErrProviderNotConfigured
	}
	return a.Classify(ctx, model, req)
}
