package database

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date column. SQLite hands it back as TEXT and
// PostgreSQL as time.Time; both scan into the same YYYY-MM-DD form.
type Date string

func DateOf(t time.Time) Date {
	return Date(t.Format(dateLayout))
}

func (d Date) Time() (time.Time, error) {
	t, err := time.Parse(dateLayout, string(d))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", string(d), err)
	}
	return t, nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = DateOf(v)
	case string:
		*d = Date(trimDate(v))
	case []byte:
		*d = Date(trimDate(string(v)))
	default:
		return fmt.Errorf("unsupported date value %T", src)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return string(d), nil
}

func trimDate(s string) string {
	if len(s) > len(dateLayout) {
		return s[:len(dateLayout)]
	}
	return s
}

// Timestamp renders instants as RFC3339 text, which both dialects accept.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Instant is a timestamp column stored as RFC3339 text in SQLite and as
// TIMESTAMPTZ in PostgreSQL.
type Instant struct {
	time.Time
}

func (i *Instant) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		i.Time = time.Time{}
	case time.Time:
		i.Time = v.UTC()
	case string:
		t, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		i.Time = t
	case []byte:
		t, err := ParseTimestamp(string(v))
		if err != nil {
			return err
		}
		i.Time = t
	default:
		return fmt.Errorf("unsupported timestamp value %T", src)
	}
	return nil
}

func (i Instant) Value() (driver.Value, error) {
	return Timestamp(i.Time), nil
}
