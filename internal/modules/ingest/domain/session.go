package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxDurationMinutes = 1000.0
	UnknownCategory    = "Unknown"
)

// Session is one canonical usage interval. It is immutable once produced by
// the normalizer.
type Session struct {
	UserID          int64
	AppName         string
	AppCategory     string
	SessionDate     time.Time
	SessionHour     int
	SessionWeekday  string
	DurationMinutes float64
	IsFeedApp       bool
	IsMidnight      bool
}

func (s Session) Validate() error {
	if s.UserID < 0 {
		return fmt.Errorf("user id must be non-negative")
	}
	if strings.TrimSpace(s.AppName) == "" {
		return fmt.Errorf("app name is required")
	}
	if s.AppCategory == "" {
		return fmt.Errorf("app category is required")
	}
	if s.SessionDate.IsZero() {
		return fmt.Errorf("session date is required")
	}
	if s.SessionHour < 0 || s.SessionHour > 23 {
		return fmt.Errorf("session hour %d outside 0-23", s.SessionHour)
	}
	if s.SessionWeekday == "" {
		return fmt.Errorf("session weekday is required")
	}
	if !ValidDuration(s.DurationMinutes) {
		return fmt.Errorf("duration %.3f outside (0, %.0f]", s.DurationMinutes, MaxDurationMinutes)
	}
	return nil
}

// ValidDuration reports 0 < d <= 1000. NaN fails both comparisons.
func ValidDuration(d float64) bool {
	return d > 0 && d <= MaxDurationMinutes
}

// Summary describes a normalized batch for the ingest log.
type Summary struct {
	Total                int
	FirstDate            time.Time
	LastDate             time.Time
	UniqueUsers          int
	FeedSessions         int
	MidnightSessions     int
	MidnightFeedSessions int
	FeedApps             []string
}

func Summarize(sessions []Session) Summary {
	out := Summary{Total: len(sessions)}
	users := map[int64]struct{}{}
	feedApps := map[string]struct{}{}
	for i, s := range sessions {
		if i == 0 || s.SessionDate.Before(out.FirstDate) {
			out.FirstDate = s.SessionDate
		}
		if i == 0 || s.SessionDate.After(out.LastDate) {
			out.LastDate = s.SessionDate
		}
		users[s.UserID] = struct{}{}
		if s.IsFeedApp {
			out.FeedSessions++
			feedApps[s.AppName] = struct{}{}
		}
		if s.IsMidnight {
			out.MidnightSessions++
		}
		if s.IsFeedApp && s.IsMidnight {
			out.MidnightFeedSessions++
		}
	}
	out.UniqueUsers = len(users)
	out.FeedApps = sortedKeys(feedApps)
	return out
}
