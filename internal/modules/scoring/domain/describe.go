package domain

import "doomscroll/internal/platform/stats"

// Description summarizes a score series the way a dataframe describe() would.
// Std is the sample standard deviation and is 0 for fewer than two values.
type Description struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

func Describe(days []DailyAggregate) Description {
	scores := make([]float64, len(days))
	for i, day := range days {
		scores[i] = day.MDIScore
	}
	s := stats.Describe(scores)
	return Description{Count: s.Count, Mean: s.Mean, Std: s.Std, Min: s.Min, Max: s.Max}
}
