package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"doomscroll/internal/platform/config"
	"doomscroll/internal/platform/database"
)

func TestOpenCreatesTablesAndIsIdempotent(t *testing.T) {
	t.Parallel()
	cfg := config.DatabaseConfig{Driver: config.DriverSQLite, DSN: filepath.Join(t.TempDir(), "nested", "mdi.db")}
	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.EnsureSchema(context.Background(), db, cfg.Driver); err != nil {
		t.Fatalf("ensure schema twice: %v", err)
	}
	for _, table := range []string{"sessions", "mdi_daily", "anomaly_log"} {
		var n int
		if err := db.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table); err != nil {
			t.Fatalf("lookup %s: %v", table, err)
		}
		if n != 1 {
			t.Fatalf("expected table %s", table)
		}
	}
	_ = db.Close()
}

func TestDateScanAcceptsDialectForms(t *testing.T) {
	t.Parallel()
	var d database.Date
	if err := d.Scan(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)); err != nil || d != "2024-01-02" {
		t.Fatalf("scan time: %v %q", err, d)
	}
	if err := d.Scan("2024-03-04T00:00:00Z"); err != nil || d != "2024-03-04" {
		t.Fatalf("scan string: %v %q", err, d)
	}
	if err := d.Scan([]byte("2024-05-06")); err != nil || d != "2024-05-06" {
		t.Fatalf("scan bytes: %v %q", err, d)
	}
	if err := d.Scan(42); err == nil {
		t.Fatalf("expected error for int")
	}
	got, err := database.Date("2024-01-02").Time()
	if err != nil || got.Weekday() != time.Tuesday {
		t.Fatalf("time: %v %v", err, got)
	}
}

func TestInstantRoundTripsThroughText(t *testing.T) {
	t.Parallel()
	at := time.Date(2024, 3, 1, 23, 59, 1, 500, time.FixedZone("CET", 3600))
	v, err := database.Instant{Time: at}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var back database.Instant
	if err := back.Scan(v); err != nil {
		t.Fatalf("scan text: %v", err)
	}
	if !back.Equal(at) || back.Location() != time.UTC {
		t.Fatalf("unexpected instant %v", back.Time)
	}
	if err := back.Scan(at); err != nil || !back.Equal(at) {
		t.Fatalf("scan time: %v %v", err, back.Time)
	}
	if err := back.Scan("yesterday"); err == nil {
		t.Fatalf("expected parse error")
	}
}
