package domain

import (
	"fmt"
	"math"
	"time"

	"doomscroll/internal/platform/stats"
)

type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityExtreme  Severity = "extreme"
)

const (
	extremeCutoff  = 2.0
	moderateCutoff = 1.5
)

// Skip reasons reported when the series cannot produce z-scores.
const (
	SkipEmpty      = "empty MDI series"
	SkipSingleDay  = "fewer than two days"
	SkipZeroStdDev = "zero standard deviation"
)

// Day is one stored daily score, in ascending date order.
type Day struct {
	Date     time.Time
	MDIScore float64
}

type Statistics struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// ZScore is a (date, z) pair written back onto the daily series.
type ZScore struct {
	Date  time.Time
	Value float64
}

type Anomaly struct {
	Date       time.Time
	MDIScore   float64
	ZScore     float64
	Severity   Severity
	Message    string
	DetectedAt time.Time
}

type Detection struct {
	Skipped    bool
	SkipReason string
	Stats      Statistics
	ZScores    []ZScore
	Anomalies  []Anomaly
}

// Classify maps |z| onto a severity. The three-way check is ordered and a
// value must still clear the detection threshold to become an anomaly.
func Classify(z float64) Severity {
	abs := math.Abs(z)
	switch {
	case abs > extremeCutoff:
		return SeverityExtreme
	case abs > moderateCutoff:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

func Message(mdi, z float64) string {
	return fmt.Sprintf("Midnight doomscroll spike detected. MDI=%.2f, z=%.2f", mdi, z)
}

// Describe computes the mean and sample standard deviation of the series.
func Describe(days []Day) Statistics {
	scores := make([]float64, len(days))
	for i, d := range days {
		scores[i] = d.MDIScore
	}
	s := stats.Describe(scores)
	return Statistics{Count: s.Count, Mean: s.Mean, StdDev: s.Std, Min: s.Min, Max: s.Max}
}

// Detect scores every day against the series and flags |z| > threshold.
// Degenerate series are skipped without z-scores or anomalies.
func Detect(days []Day, threshold float64, detectedAt time.Time) Detection {
	st := Describe(days)
	out := Detection{Stats: st}
	switch {
	case st.Count == 0:
		out.Skipped, out.SkipReason = true, SkipEmpty
	case st.Count < 2:
		out.Skipped, out.SkipReason = true, SkipSingleDay
	case st.Min == st.Max || st.StdDev == 0 || math.IsNaN(st.StdDev):
		out.Skipped, out.SkipReason = true, SkipZeroStdDev
	}
	if out.Skipped {
		return out
	}

	out.ZScores = make([]ZScore, 0, len(days))
	for _, d := range days {
		z := (d.MDIScore - st.Mean) / st.StdDev
		out.ZScores = append(out.ZScores, ZScore{Date: d.Date, Value: z})
		if math.Abs(z) <= threshold {
			continue
		}
		out.Anomalies = append(out.Anomalies, Anomaly{
			Date:       d.Date,
			MDIScore:   d.MDIScore,
			ZScore:     z,
			Severity:   Classify(z),
			Message:    Message(d.MDIScore, z),
			DetectedAt: detectedAt,
		})
	}
	return out
}

func (s Severity) Validate() error {
	switch s {
	case SeverityMild, SeverityModerate, SeverityExtreme:
		return nil
	default:
		return fmt.Errorf("unknown severity %q", string(s))
	}
}
