package usecase

import "sentinel-moderation/internal/domain/model"

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

type StatsUseCase interface {
	Summary() model.StatsSummary
}

// HistoryReader is the read side of the session store.
type HistoryReader interface {
	History() []model.AnalysisResult
}

type statsUC struct {
	history HistoryReader
}

func NewStatsUseCase(history HistoryReader) *statsUC {
	return &statsUC{history: history}
}

// Summary recomputes the counts from the full history on every call.
func (s *statsUC) Summary() model.StatsSummary {
	return Aggregate(s.history.History())
}

// Aggregate counts the three primary categories. Uncertain entries are
// tallied separately and never land in a primary bucket; they still count
// towards Total.
func Aggregate(history []model.AnalysisResult) model.StatsSummary {
	sum := model.StatsSummary{
		Counts: make(map[model.Category]int, len(model.PrimaryCategories)),
		Total:  len(history),
	}
	for _, c := range model.PrimaryCategories {
		sum.Counts[c] = 0
	}
	for _, r := range history {
		if _, ok := sum.Counts[r.Category]; ok {
			sum.Counts[r.Category]++
		} else {
			sum.Uncertain++
		}
	}
	if sum.Total > 0 {
		flagged := sum.Counts[model.CategoryHateSpeech] + sum.Counts[model.CategoryOffensive]
		sum.FlaggedRate = float64(flagged) / float64(sum.Total)
	}
	sum.Series = make([]model.StatsPoint, 0, len(model.PrimaryCategories))
	for _, c := range model.PrimaryCategories {
		sum.Series = append(sum.Series, model.StatsPoint{Name: c, Value: sum.Counts[c], Color: c.Color()})
	}
	return sum
}
