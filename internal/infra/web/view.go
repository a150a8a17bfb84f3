package web

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	"sentinel-moderation/internal/domain/model"
)

// Theme is the display treatment of a result card.
type Theme struct {
	Label string
	Class string
}

// ThemeFor returns the card theme of a category. Anything outside the three
// primary categories renders as Neutral.
func ThemeFor(c model.Category) Theme {
	switch c {
	case model.CategoryHateSpeech:
		return Theme{Label: "Danger: Hate Speech", Class: "danger"}
	case model.CategoryOffensive:
		return Theme{Label: "Warning: Offensive Language", Class: "warning"}
	case model.CategorySafe:
		return Theme{Label: "Safe Content", Class: "safe"}
	default:
		return Theme{Label: "Neutral", Class: "neutral"}
	}
}

// Percent renders a ratio as a whole percentage, e.g. 0.956 -> "96%".
func Percent(v float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(v*100)))
}

// FormatTime renders a millisecond timestamp in local time.
func FormatTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("Jan 2, 15:04")
}

// CharCount counts characters, not bytes.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

type quickStats struct {
	Safe      int
	Offensive int
	Hate      int
}

type analyzeView struct {
	Tab       string
	Draft     string
	Notice    string
	Current   *model.AnalysisResult
	Pending   bool
	LastError string
	Quick     quickStats
}

type historyView struct {
	Tab     string
	History []model.AnalysisResult
	Quick   quickStats
}

type statsBar struct {
	Name  model.Category
	Value int
	Color string
	Width int
}

type statsView struct {
	Tab         string
	Total       int
	FlaggedRate float64
	Bars        []statsBar
	Quick       quickStats
}

func quickFrom(sum model.StatsSummary) quickStats {
	return quickStats{
		Safe:      sum.Counts[model.CategorySafe],
		Offensive: sum.Counts[model.CategoryOffensive],
		Hate:      sum.Counts[model.CategoryHateSpeech],
	}
}

// barsFrom scales the chart series against the largest bucket.
func barsFrom(sum model.StatsSummary) []statsBar {
	peak := 0
	for _, p := range sum.Series {
		if p.Value > peak {
			peak = p.Value
		}
	}
	out := make([]statsBar, 0, len(sum.Series))
	for _, p := range sum.Series {
		w := 0
		if peak > 0 {
			w = p.Value * 100 / peak
		}
		out = append(out, statsBar{Name: p.Name, Value: p.Value, Color: p.Color, Width: w})
	}
	return out
}
