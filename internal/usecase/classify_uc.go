package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sentinel-moderation/internal/domain"
	"sentinel-moderation/internal/domain/model"
	"sentinel-moderation/internal/domain/ports/adapter"
	"sentinel-moderation/internal/infra/logging"
	"sentinel-moderation/internal/infra/metrics"
)

// Compile-time check
var _ ClassifyUseCase = (*classifyUC)(nil)

// SystemInstruction is sent unchanged with every classification request.
const SystemInstruction = `You are an expert content moderator and linguistic analyst.
Your job is to classify text into one of three categories:
1. Hate Speech: Content promoting violence, inciting hatred, or promoting discrimination against protected groups.
2. Offensive Language: Profanity, insults, or derogatory terms that are rude but don't target protected groups specifically.
3. Safe / Neutral: Normal conversation, positive comments, or non-harmful content.

Provide a JSON response with the category, a confidence score (0-1), a brief explanation, and any flagged keywords.`

const DefaultTimeout = 30 * time.Second

// User-visible messages.
const (
	msgServiceFailed = "Failed to analyze text. Please try again."
	msgTimedOut      = "The classification service did not respond in time. Please try again."
	msgMalformed     = "The classification service returned an unreadable response. Please try again."
	msgUnexpectedCat = "The classification service returned an unknown category. Please try again."
	msgNoProvider    = "No classification provider is configured."
)

type ClassifyUseCase interface {
	// Classify validates text, performs exactly one outbound call and returns
	// a freshly stamped result.
	Classify(ctx context.Context, text string) (*model.AnalysisResult, error)
	ListModels(ctx context.Context) ([]string, error)
}

type ClassifyOptions struct {
	Model   string
	Timeout time.Duration
	IDs     IDGenerator
	Now     func() time.Time
	Dev     bool
}

type classifyUC struct {
	ai      adapter.ClassifierAdapter
	model   string
	timeout time.Duration
	ids     IDGenerator
	now     func() time.Time
	dev     bool
	log     *zerolog.Logger
}

func NewClassifyUseCase(ai adapter.ClassifierAdapter, opts ClassifyOptions, logger *zerolog.Logger) *classifyUC {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.IDs == nil {
		opts.IDs = NewULIDGenerator()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &classifyUC{
		ai:      ai,
		model:   opts.Model,
		timeout: opts.Timeout,
		ids:     opts.IDs,
		now:     opts.Now,
		dev:     opts.Dev,
		log:     logger,
	}
}

// ValidateText reports ErrInvalidInput for empty or whitespace-only text.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrInvalidInput
	}
	return nil
}

// BuildPrompt wraps the raw text the way the service expects it.
func BuildPrompt(text string) string {
	return "Analyze the following text for hate speech or offensive content. " +
		"Be objective and provide a classification.\n\nText: \"" + text + "\""
}

func (c *classifyUC) Classify(ctx context.Context, text string) (*model.AnalysisResult, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	log := logging.With(ctx, c.log)
	defer logging.TraceDuration(log, "ClassifyUC.Classify")()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.ai.Classify(callCtx, c.model, adapter.ClassifyRequest{
		Instruction: SystemInstruction,
		Prompt:      BuildPrompt(text),
		Labels:      primaryLabels(),
	})
	latency := int(time.Since(start).Milliseconds())
	provider, usedModel := resp.Provider, modelOrDefault(resp.Model, c.model)
	metrics.ObserveClassification(provider, usedModel,
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens, latency, err == nil)

	if err != nil {
		ce := classifyCallError(err)
		log.Error().Err(err).
			Str("model", usedModel).
			Str("text", logging.Redact(text, c.dev)).
			Int("latency_ms", latency).
			Msg("classification call failed")
		return nil, ce
	}

	v, err := parseVerdict(resp.Raw)
	if err != nil {
		log.Error().Err(err).Str("model", usedModel).Str("raw", logging.Redact(resp.Raw, c.dev)).Msg("unparseable classification")
		if errors.Is(err, domain.ErrUnexpectedCategory) {
			return nil, domain.NewClassificationError(msgUnexpectedCat, err)
		}
		return nil, domain.NewClassificationError(msgMalformed, err)
	}

	res := &model.AnalysisResult{
		ID:              c.ids(),
		Text:            text,
		Category:        v.category,
		Confidence:      v.confidence,
		Explanation:     v.explanation,
		FlaggedKeywords: v.keywords,
		Timestamp:       c.now().UnixMilli(),
		Provider:        provider,
		Model:           usedModel,
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		log.Warn().Float64("confidence", res.Confidence).Msg("confidence outside [0,1]")
	}
	metrics.IncResult(string(res.Category))
	logging.With(logging.WithResultID(ctx, res.ID), c.log).Info().
		Str("category", string(res.Category)).
		Float64("confidence", res.Confidence).
		Int("keywords", len(res.FlaggedKeywords)).
		Int("latency_ms", latency).
		Msg("text classified")
	return res, nil
}

func (c *classifyUC) ListModels(ctx context.Context) ([]string, error) {
	return c.ai.ListModels(ctx)
}

// --- internal ---

func classifyCallError(err error) *domain.ClassificationError {
	var ce *domain.ClassificationError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewClassificationError(msgTimedOut, err)
	case errors.Is(err, domain.ErrProviderNotConfigured):
		return domain.NewClassificationError(msgNoProvider, err)
	default:
		return domain.NewClassificationError(msgServiceFailed, err)
	}
}

type verdict struct {
	category    model.Category
	confidence  float64
	explanation string
	keywords    []string
}

type wireVerdict struct {
	Category        *string   `json:"category"`
	Confidence      *float64  `json:"confidence"`
	Explanation     *string   `json:"explanation"`
	FlaggedKeywords *[]string `json:"flaggedKeywords"`
}

// parseVerdict decodes the model's JSON object. category, confidence and
// explanation must be present; an absent keyword list means no keywords.
func parseVerdict(raw string) (verdict, error) {
	raw = stripCodeFence(raw)
	if raw == "" {
		return verdict{}, fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)
	}
	var w wireVerdict
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return verdict{}, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	switch {
	case w.Category == nil:
		return verdict{}, fmt.Errorf("%w: missing %s", domain.ErrMalformedResponse, adapter.FieldCategory)
	case w.Confidence == nil:
		return verdict{}, fmt.Errorf("%w: missing %s", domain.ErrMalformedResponse, adapter.FieldConfidence)
	case w.Explanation == nil:
		return verdict{}, fmt.Errorf("%w: missing %s", domain.ErrMalformedResponse, adapter.FieldExplanation)
	}
	cat, ok := model.ParseCategory(*w.Category)
	if !ok {
		return verdict{}, fmt.Errorf("%w: %q", domain.ErrUnexpectedCategory, *w.Category)
	}
	kw := []string{}
	if w.FlaggedKeywords != nil {
		kw = append(kw, (*w.FlaggedKeywords)...)
	}
	return verdict{category: cat, confidence: *w.Confidence, explanation: *w.Explanation, keywords: kw}, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func primaryLabels() []string {
	out := make([]string, 0, len(model.PrimaryCategories))
	for _, c := range model.PrimaryCategories {
		out = append(out, string(c))
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
