package model

import "time"

// Category is the moderation label of a piece of text.
type Category string

const (
	CategoryHateSpeech Category = "Hate Speech"
	CategoryOffensive  Category = "Offensive Language"
	CategorySafe       Category = "Safe / Neutral"
	// CategoryUncertain is local only; the classification service never returns it.
	CategoryUncertain Category = "Uncertain"
)

// PrimaryCategories are the labels the service may return, in display order.
var PrimaryCategories = []Category{CategoryHateSpeech, CategoryOffensive, CategorySafe}

// ParseCategory maps a service label onto the enumeration. Only the three
// primary labels are accepted.
func ParseCategory(label string) (Category, bool) {
	for _, c := range PrimaryCategories {
		if string(c) == label {
			return c, true
		}
	}
	return "", false
}

func (c Category) Flagged() bool {
	return c == CategoryHateSpeech || c == CategoryOffensive
}

// AnalysisResult is one completed classification. Values are never mutated
// after construction; callers receive copies.
type AnalysisResult struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Category        Category `json:"category"`
	Confidence      float64  `json:"confidence"`
	Explanation     string   `json:"explanation"`
	FlaggedKeywords []string `json:"flaggedKeywords"`
	Timestamp       int64    `json:"timestamp"` // unix millis
	Provider        string   `json:"provider,omitempty"`
	Model           string   `json:"model,omitempty"`
}

func (r AnalysisResult) CreatedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Clone returns a deep copy so the keyword slice is not shared.
func (r AnalysisResult) Clone() AnalysisResult {
	cp := r
	if r.FlaggedKeywords != nil {
		cp.FlaggedKeywords = append([]string(nil), r.FlaggedKeywords...)
	}
	return cp
}
