package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"sentinel-moderation/internal/domain/ports/adapter"
)

var _ adapter.ClassifierAdapter = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
// baseURL may be empty to use the public endpoint.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string, maxOut int, httpClient *http.Client) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: maxOut}, nil
}

func (g *GeminiAdapter) ListModels(ctx context.Context) ([]string, error) {
	if g.defaultModel == "" {
		return nil, nil
	}
	return []string{g.defaultModel}, nil
}

func (g *GeminiAdapter) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	model = modelOrDefault(model, g.defaultModel)
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   verdictSchema(req.Labels),
	}
	if req.Instruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instruction, genai.RoleUser)
	}
	if g.maxOut > 0 {
		cfg.MaxOutputTokens = int32(g.maxOut)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return adapter.ClassifyResponse{}, err
	}

	out := adapter.ClassifyResponse{Raw: responseText(resp), Provider: ProviderGemini, Model: model}
	if resp != nil && resp.UsageMetadata != nil {
		out.Usage.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.Usage.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		out.Usage.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if out.Raw == "" {
		return out, errors.New("gemini: empty response")
	}
	return out, nil
}

// --- internal ---

func verdictSchema(labels []string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			adapter.FieldCategory: {
				Type:        genai.TypeString,
				Description: "The classification category",
				Enum:        labels,
			},
			adapter.FieldConfidence: {
				Type:        genai.TypeNumber,
				Description: "Certainty score between 0 and 1",
			},
			adapter.FieldExplanation: {
				Type:        genai.TypeString,
				Description: "Reasoning behind the classification",
			},
			adapter.FieldFlaggedKeywords: {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Specific problematic words found",
			},
		},
		Required: []string{
			adapter.FieldCategory, adapter.FieldConfidence,
			adapter.FieldExplanation, adapter.FieldFlaggedKeywords,
		},
		PropertyOrdering: []string{
			adapter.FieldCategory, adapter.FieldConfidence,
			adapter.FieldExplanation, adapter.FieldFlaggedKeywords,
		},
	}
}

// responseText joins the non-thought parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
