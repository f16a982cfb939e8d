package domain

import (
	"fmt"
	"sort"

	apperrors "doomscroll/internal/platform/errors"
)

// Canonical field names.
const (
	FieldUserID      = "user_id"
	FieldAppName     = "app_name"
	FieldAppCategory = "app_category"
	FieldDate        = "date"
	FieldHour        = "hour"
	FieldDuration    = "duration_minutes"
)

// fieldCandidate lists the raw column names accepted for one canonical field,
// in priority order.
type fieldCandidate struct {
	Canonical string
	Required  bool
	Keys      []string
}

var fieldCandidates = []fieldCandidate{
	{Canonical: FieldDate, Required: true, Keys: []string{"date"}},
	{Canonical: FieldUserID, Keys: []string{"user_id"}},
	{Canonical: FieldAppName, Required: true, Keys: []string{"app_name", "App Name", "app"}},
	{Canonical: FieldDuration, Required: true, Keys: []string{"duration_minutes", "screen_time_min", "screen_time", "Screen Time", "duration", "Duration"}},
	{Canonical: FieldAppCategory, Keys: []string{"app_category", "App Category", "category"}},
	{Canonical: FieldHour, Keys: []string{"hour"}},
}

// Schema maps each canonical field to the raw column that supplies it. A
// missing entry means the source has no such column.
type Schema map[string]string

// ResolveSchema picks the first matching raw column for every canonical field.
func ResolveSchema(columns []string) (Schema, error) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}
	schema := Schema{}
	var missing []string
	for _, candidate := range fieldCandidates {
		for _, key := range candidate.Keys {
			if _, ok := present[key]; ok {
				schema[candidate.Canonical] = key
				break
			}
		}
		if _, ok := schema[candidate.Canonical]; !ok && candidate.Required {
			missing = append(missing, fmt.Sprintf("%s (one of %v)", candidate.Canonical, candidate.Keys))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %v; available columns: %v", apperrors.ErrMissingColumn, missing, columns)
	}
	return schema, nil
}

// Has reports whether the source carries the canonical field at all.
func (s Schema) Has(canonical string) bool {
	_, ok := s[canonical]
	return ok
}

// Value looks up a canonical field on a raw record through the schema.
func (s Schema) Value(rec RawRecord, canonical string) (string, bool) {
	key, ok := s[canonical]
	if !ok {
		return "", false
	}
	return rec.Lookup(key)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
