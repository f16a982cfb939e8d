package domain

import "strings"

// Flagger tags sessions by app category and time-of-day bucket.
type Flagger struct {
	feedApps      map[string]struct{}
	midnightHours map[int]struct{}
}

func NewFlagger(feedApps map[string]struct{}, midnightHours map[int]struct{}) Flagger {
	normalized := make(map[string]struct{}, len(feedApps))
	for name := range feedApps {
		normalized[normalizeAppName(name)] = struct{}{}
	}
	hours := make(map[int]struct{}, len(midnightHours))
	for h := range midnightHours {
		hours[h] = struct{}{}
	}
	return Flagger{feedApps: normalized, midnightHours: hours}
}

func (f Flagger) IsFeedApp(appName string) bool {
	_, ok := f.feedApps[normalizeAppName(appName)]
	return ok
}

func (f Flagger) IsMidnight(hour int) bool {
	_, ok := f.midnightHours[hour]
	return ok
}

func (f Flagger) Flag(s Session) Session {
	s.IsFeedApp = f.IsFeedApp(s.AppName)
	s.IsMidnight = f.IsMidnight(s.SessionHour)
	return s
}

func normalizeAppName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
