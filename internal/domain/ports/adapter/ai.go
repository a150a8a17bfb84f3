package adapter

import "context"

// Usage for a single classification call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ClassifyRequest is one schema-constrained classification call.
type ClassifyRequest struct {
	Instruction string   // system instruction
	Prompt      string   // user content, already wrapped
	Labels      []string // allowed values of the "category" field
}

// ClassifyResponse carries the raw JSON object produced by the model.
// Parsing is left to the caller so every provider is held to the same rules.
type ClassifyResponse struct {
	Raw      string
	Usage    Usage
	Provider string
	Model    string
}

// Response field names shared by every provider schema.
const (
	FieldCategory        = "category"
	FieldConfidence      = "confidence"
	FieldExplanation     = "explanation"
	FieldFlaggedKeywords = "flaggedKeywords"
)

// ClassifierAdapter is the port for an external text-classification model.
type ClassifierAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// Classify performs exactly one outbound call.
	Classify(ctx context.Context, model string, req ClassifyRequest) (ClassifyResponse, error)
}
