package domain

import (
	"sort"
	"time"
)

// Epsilon keeps the MDI ratio finite on days without midnight activity.
const Epsilon = 0.001

// Session is the slice of a canonical session the aggregator needs.
type Session struct {
	Date            time.Time
	Weekday         string
	DurationMinutes float64
	IsFeedApp       bool
	IsMidnight      bool
}

// DailyAggregate is one scored calendar day. ZScore stays nil until anomaly
// detection writes it.
type DailyAggregate struct {
	Date                     time.Time
	Weekday                  string
	FeedTimeMinutes          float64
	TotalMidnightTimeMinutes float64
	AvgFeedSessionMinutes    float64
	NumFeedMidnightSessions  int
	NumMidnightSessions      int
	MDIScore                 float64
	ZScore                   *float64
}

// Score computes the Midnight Doomscroll Index from a day's base aggregates.
func Score(feedTime, totalMidnightTime, avgFeedSession float64) float64 {
	return (feedTime / (totalMidnightTime + Epsilon)) * avgFeedSession
}

// Aggregate groups sessions by calendar date and scores each day. The result
// is ordered ascending by date.
func Aggregate(sessions []Session) []DailyAggregate {
	byDate := map[time.Time]*DailyAggregate{}
	for _, s := range sessions {
		day := time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
		agg, ok := byDate[day]
		if !ok {
			agg = &DailyAggregate{Date: day, Weekday: s.Weekday}
			if agg.Weekday == "" {
				agg.Weekday = day.Weekday().String()
			}
			byDate[day] = agg
		}
		if !s.IsMidnight {
			continue
		}
		agg.TotalMidnightTimeMinutes += s.DurationMinutes
		agg.NumMidnightSessions++
		if s.IsFeedApp {
			agg.FeedTimeMinutes += s.DurationMinutes
			agg.NumFeedMidnightSessions++
		}
	}

	out := make([]DailyAggregate, 0, len(byDate))
	for _, agg := range byDate {
		if agg.NumFeedMidnightSessions > 0 {
			agg.AvgFeedSessionMinutes = agg.FeedTimeMinutes / float64(agg.NumFeedMidnightSessions)
		}
		agg.MDIScore = Score(agg.FeedTimeMinutes, agg.TotalMidnightTimeMinutes, agg.AvgFeedSessionMinutes)
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
