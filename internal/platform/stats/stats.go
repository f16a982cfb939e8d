// Package stats holds the series summary shared by the scoring and anomaly
// stages.
package stats

import "math"

// Summary mirrors a dataframe describe(): Std is the sample standard
// deviation and stays 0 for fewer than two values.
type Summary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
}

func Describe(values []float64) Summary {
	s := Summary{Count: len(values)}
	if s.Count == 0 {
		return s
	}
	s.Min, s.Max = math.Inf(1), math.Inf(-1)
	var sum float64
	for _, v := range values {
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = sum / float64(s.Count)
	if s.Count < 2 {
		return s
	}
	var sq float64
	for _, v := range values {
		diff := v - s.Mean
		sq += diff * diff
	}
	s.Std = math.Sqrt(sq / float64(s.Count-1))
	return s
}
