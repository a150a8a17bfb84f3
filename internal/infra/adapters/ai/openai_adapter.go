package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"sentinel-moderation/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ClassifierAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter implements adapter.ClassifierAdapter using Chat Completions
// with a strict JSON-schema response format.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

// NewOpenAIAdapter builds the adapter. base may be empty for api.openai.com;
// any OpenAI-compatible gateway works as well.
func NewOpenAIAdapter(apiKey, model, base string, httpClient *http.Client) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// one outbound call per classification
		option.WithMaxRetries(0),
	}
	if base = strings.TrimSpace(base); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIAdapter{client: openai.NewClient(opts...), model: model}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{o.model}, nil
}

func (o *OpenAIAdapter) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	model = modelOrDefault(model, o.model)

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.Instruction != "" {
		messages = append(messages, openai.SystemMessage(req.Instruction))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "moderation_verdict",
					Description: openai.String("Hate speech and offensive language classification"),
					Schema:      jsonVerdictSchema(req.Labels),
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return adapter.ClassifyResponse{}, err
	}

	out := adapter.ClassifyResponse{Provider: ProviderOpenAI, Model: model}
	out.Usage = adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			out.Raw = c.Message.Content
			return out, nil
		}
	}
	return out, errors.New("no choice content")
}

func jsonVerdictSchema(labels []string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			adapter.FieldCategory: map[string]any{
				"type":        "string",
				"description": "The classification category",
				"enum":        labels,
			},
			adapter.FieldConfidence: map[string]any{
				"type":        "number",
				"description": "Certainty score between 0 and 1",
			},
			adapter.FieldExplanation: map[string]any{
				"type":        "string",
				"description": "Reasoning behind the classification",
			},
			adapter.FieldFlaggedKeywords: map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Specific problematic words found",
			},
		},
		"required": []string{
			adapter.FieldCategory, adapter.FieldConfidence,
			adapter.FieldExplanation, adapter.FieldFlaggedKeywords,
		},
		"additionalProperties": false,
	}
}
