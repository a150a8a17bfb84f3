package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"sentinel-moderation/internal/domain/ports/adapter"
)

const (
	ProviderAnthropic     = "anthropic"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens    = 1024
)

var _ adapter.ClassifierAdapter = (*AnthropicAdapter)(nil)

// AnthropicAdapter implements adapter.ClassifierAdapter with the Messages
// API. The API has no response-schema switch, so the schema is appended to
// the system prompt.
type AnthropicAdapter struct {
	client anthropic.Client
	model  string
}

func NewAnthropicAdapter(apiKey, model, base string, httpClient *http.Client) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic api key empty")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base = strings.TrimSpace(base); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(base, "/")+"/"))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &AnthropicAdapter{client: anthropic.NewClient(opts...), model: model}, nil
}

func (a *AnthropicAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{a.model}, nil
}

func (a *AnthropicAdapter) Classify(ctx context.Context, model string, req adapter.ClassifyRequest) (adapter.ClassifyResponse, error) {
	model = modelOrDefault(model, a.model)

	system, err := schemaInstruction(req.Instruction, req.Labels)
	if err != nil {
		return adapter.ClassifyResponse{}, err
	}
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return adapter.ClassifyResponse{}, err
	}

	out := adapter.ClassifyResponse{Provider: ProviderAnthropic, Model: model}
	out.Usage = adapter.Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return out, errors.New("no text content in anthropic response")
	}
	out.Raw = sb.String()
	return out, nil
}

func schemaInstruction(instruction string, labels []string) (string, error) {
	schema, err := json.Marshal(jsonVerdictSchema(labels))
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if instruction != "" {
		sb.WriteString(instruction)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond with a single JSON object and nothing else. It must match this JSON schema:\n")
	sb.Write(schema)
	return sb.String(), nil
}
