package model

// SessionSnapshot is a read-only view of the session state at one instant.
type SessionSnapshot struct {
	History   []AnalysisResult `json:"history"`
	Current   *AnalysisResult  `json:"current"`
	Pending   bool             `json:"pending"`
	LastError string           `json:"lastError,omitempty"`
}

// StatsSummary is derived from history on every call and never stored.
type StatsSummary struct {
	Counts      map[Category]int `json:"counts"`
	Uncertain   int              `json:"uncertain"`
	Total       int              `json:"total"`
	FlaggedRate float64          `json:"flaggedRate"`
	Series      []StatsPoint     `json:"series"`
}

// StatsPoint is one chart bucket.
type StatsPoint struct {
	Name  Category `json:"name"`
	Value int      `json:"value"`
	Color string   `json:"color"`
}

// Color used by charts and badges for each category.
func (c Category) Color() string {
	switch c {
	case CategoryHateSpeech:
		return "#ef4444"
	case CategoryOffensive:
		return "#f59e0b"
	case CategorySafe:
		return "#10b981"
	default:
		return "#64748b"
	}
}
