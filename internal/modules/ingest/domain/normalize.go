package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Drop reasons, used for counters and log fields.
const (
	DropInvalidDate     = "invalid_date"
	DropInvalidHour     = "invalid_hour"
	DropMissingRequired = "missing_required"
	DropInvalidDuration = "invalid_duration"
	DropDuplicate       = "duplicate"
)

// TimestampParser turns a raw date cell into an instant.
type TimestampParser func(string) (time.Time, error)

// ParseTimestamp infers the layout of free-form date strings
// ("2024-01-02 02:00", "01/02/2024", "Jan 2, 2024 2:00am", ...).
func ParseTimestamp(raw string) (t time.Time, err error) {
	// dateparse panics on a few malformed inputs; treat those as unparsable.
	defer func() {
		if r := recover(); r != nil {
			t, err = time.Time{}, fmt.Errorf("parse %q: %v", raw, r)
		}
	}()
	return dateparse.ParseAny(strings.TrimSpace(raw))
}

type NormalizeStats struct {
	Read              int
	Kept              int
	InvalidDate       int
	InvalidHour       int
	MissingRequired   int
	InvalidDuration   int
	Duplicates        int
	CoercedUserIDs    int
	DefaultCategory   int
	HourFromTimestamp bool
}

// Dropped returns the per-reason drop counts.
func (s NormalizeStats) Dropped() map[string]int {
	return map[string]int{
		DropInvalidDate:     s.InvalidDate,
		DropInvalidHour:     s.InvalidHour,
		DropMissingRequired: s.MissingRequired,
		DropInvalidDuration: s.InvalidDuration,
		DropDuplicate:       s.Duplicates,
	}
}

type NormalizeResult struct {
	Schema   Schema
	Sessions []Session
	Stats    NormalizeStats
}

// Normalizer turns raw records into flagged canonical sessions.
type Normalizer struct {
	flagger   Flagger
	parseTime TimestampParser
}

func NewNormalizer(flagger Flagger, parseTime TimestampParser) Normalizer {
	if parseTime == nil {
		parseTime = ParseTimestamp
	}
	return Normalizer{flagger: flagger, parseTime: parseTime}
}

type dedupKey struct {
	userID  int64
	appName string
	date    string
	hour    int
}

// Normalize resolves the column schema and applies the row rules in input
// order. Only a missing required column fails; bad rows are counted and
// dropped.
func (n Normalizer) Normalize(batch RawBatch) (NormalizeResult, error) {
	schema, err := ResolveSchema(batch.Columns)
	if err != nil {
		return NormalizeResult{}, err
	}
	stats := NormalizeStats{Read: len(batch.Records), HourFromTimestamp: !schema.Has(FieldHour)}
	seen := make(map[dedupKey]struct{}, len(batch.Records))
	sessions := make([]Session, 0, len(batch.Records))

	for _, rec := range batch.Records {
		rawDate, _ := schema.Value(rec, FieldDate)
		if IsMissing(rawDate) {
			stats.InvalidDate++
			continue
		}
		ts, err := n.parseTime(rawDate)
		if err != nil {
			stats.InvalidDate++
			continue
		}

		hour := ts.Hour()
		if schema.Has(FieldHour) {
			rawHour, _ := schema.Value(rec, FieldHour)
			h, ok := coerceHour(rawHour)
			if !ok {
				stats.InvalidHour++
				continue
			}
			hour = h
		}

		if missingAny(schema, rec, FieldUserID, FieldAppName, FieldDuration) {
			stats.MissingRequired++
			continue
		}

		rawDuration, _ := schema.Value(rec, FieldDuration)
		duration, err := strconv.ParseFloat(strings.TrimSpace(rawDuration), 64)
		if err != nil || !ValidDuration(duration) {
			stats.InvalidDuration++
			continue
		}

		var userID int64
		if rawUser, ok := schema.Value(rec, FieldUserID); ok {
			var coerced bool
			userID, coerced = coerceUserID(rawUser)
			if coerced {
				stats.CoercedUserIDs++
			}
		}

		appName, _ := schema.Value(rec, FieldAppName)
		category := UnknownCategory
		if rawCategory, ok := schema.Value(rec, FieldAppCategory); ok && !IsMissing(rawCategory) {
			category = rawCategory
		} else {
			stats.DefaultCategory++
		}

		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		key := dedupKey{userID: userID, appName: appName, date: day.Format("2006-01-02"), hour: hour}
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		sessions = append(sessions, n.flagger.Flag(Session{
			UserID:          userID,
			AppName:         appName,
			AppCategory:     category,
			SessionDate:     day,
			SessionHour:     hour,
			SessionWeekday:  ts.Weekday().String(),
			DurationMinutes: duration,
		}))
	}

	stats.Kept = len(sessions)
	return NormalizeResult{Schema: schema, Sessions: sessions, Stats: stats}, nil
}

func missingAny(schema Schema, rec RawRecord, fields ...string) bool {
	for _, field := range fields {
		if !schema.Has(field) {
			continue
		}
		v, _ := schema.Value(rec, field)
		if IsMissing(v) {
			return true
		}
	}
	return false
}

// coerceUserID parses numeric ids, truncating fractions. Anything else,
// including negative or out-of-range values, becomes the placeholder 0.
// Integers are parsed exactly so large ids stay distinct.
func coerceUserID(raw string) (int64, bool) {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if n < 0 {
			return 0, true
		}
		return n, false
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= 1<<63 {
		return 0, true
	}
	return int64(f), false
}

func coerceHour(raw string) (int, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	h := int(f)
	if h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}
