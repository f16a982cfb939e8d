package domain

import "strings"

// RawRecord is an untyped input row. Lookup reports false when the field does
// not exist in the source at all; a present but blank value returns ("", true).
type RawRecord interface {
	Lookup(field string) (string, bool)
}

// RawBatch is everything read from one raw source, in input order.
type RawBatch struct {
	Columns []string
	Records []RawRecord
}

// MapRecord is a RawRecord over a plain map, handy for JSON-ish sources and tests.
type MapRecord map[string]string

func (m MapRecord) Lookup(field string) (string, bool) {
	v, ok := m[field]
	return v, ok
}

// naTokens are the literal cells treated as missing, matching the defaults of
// common dataframe CSV readers.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw cell carries no value.
func IsMissing(v string) bool {
	_, ok := naTokens[strings.TrimSpace(v)]
	return ok
}
