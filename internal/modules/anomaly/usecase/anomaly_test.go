package usecase_test

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	anomalyout "doomscroll/internal/modules/anomaly/adapter/out"
	anomalyin "doomscroll/internal/modules/anomaly/port/in"
	"doomscroll/internal/modules/anomaly/service"
	"doomscroll/internal/modules/anomaly/usecase"
	"doomscroll/internal/platform/clock"
	"doomscroll/internal/platform/config"
	"doomscroll/internal/platform/database"
	apperrors "doomscroll/internal/platform/errors"
	"doomscroll/internal/platform/metrics"
)

var now = time.Date(2024, 2, 1, 6, 30, 0, 0, time.UTC)

func setup(t *testing.T, threshold float64, scores ...float64) (*sqlx.DB, *observer.ObservedLogs, anomalyin.Usecase) {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "mdi.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	// Insert newest first so ordering comes from the query, not insertion.
	for i := len(scores) - 1; i >= 0; i-- {
		_, err := db.Exec(`
INSERT INTO mdi_daily (date_recorded, weekday, feed_time_minutes, total_midnight_time_minutes, avg_feed_session_minutes, num_feed_midnight_sessions, num_midnight_sessions, mdi_score)
VALUES (?, ?, 0, 0, 0, 0, 0, ?)`, string(database.DateOf(start.AddDate(0, 0, i))), start.AddDate(0, 0, i).Weekday().String(), scores[i])
		if err != nil {
			t.Fatalf("seed day %d: %v", i, err)
		}
	}

	core, logs := observer.New(zap.InfoLevel)
	svc := service.NewAnomalyService(
		anomalyout.NewSQLSeriesReader(db),
		anomalyout.NewSQLAnomalyStore(db, 500),
		clock.Fixed{At: now},
		threshold,
		zap.New(core),
		metrics.New(),
	)
	return db, logs, usecase.NewInteractor(svc)
}

func zScores(t *testing.T, db *sqlx.DB) []sql.NullFloat64 {
	t.Helper()
	var out []sql.NullFloat64
	if err := db.Select(&out, `SELECT z_score FROM mdi_daily ORDER BY date_recorded`); err != nil {
		t.Fatalf("select z: %v", err)
	}
	return out
}

func TestDetectSingleDayIsSkipped(t *testing.T) {
	t.Parallel()
	db, logs, uc := setup(t, 1.5, 29.999)

	out, err := uc.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !out.Skipped || len(out.Anomalies) != 0 || out.ZScoresStored != 0 {
		t.Fatalf("expected skip, got %+v", out)
	}
	for _, z := range zScores(t, db) {
		if z.Valid {
			t.Fatalf("z-score must stay NULL when skipped")
		}
	}
	if logs.FilterMessage("anomaly detection skipped").Len() != 1 {
		t.Fatalf("expected skip warning")
	}
	listed, err := uc.ListAnomalies(context.Background())
	if err != nil || len(listed) != 0 {
		t.Fatalf("expected no anomalies, got %v %v", listed, err)
	}
}

func TestDetectWritesEveryZScoreAndLogsSpike(t *testing.T) {
	t.Parallel()
	db, logs, uc := setup(t, 1.5, 10, 10, 10, 10, 100)

	out, err := uc.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if out.Skipped || out.ZScoresStored != 5 || len(out.Anomalies) != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	a := out.Anomalies[0]
	if a.Date != "2024-01-05" || a.Severity != "moderate" || a.MDIScore != 100 {
		t.Fatalf("unexpected anomaly %+v", a)
	}
	if out.Stats.Mean != 28 || math.Abs(out.Stats.StdDev-math.Sqrt(1620)) > 1e-12 {
		t.Fatalf("unexpected stats %+v", out.Stats)
	}

	stored := zScores(t, db)
	if len(stored) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(stored))
	}
	for i, z := range stored {
		if !z.Valid {
			t.Fatalf("day %d has no z-score", i)
		}
	}
	if math.Abs(stored[0].Float64-(-18/math.Sqrt(1620))) > 1e-12 {
		t.Fatalf("unexpected z for first day: %f", stored[0].Float64)
	}
	stats := logs.FilterMessage("MDI series statistics").All()
	if len(stats) != 1 {
		t.Fatalf("expected one statistics line, got %d", len(stats))
	}
	if fields := stats[0].ContextMap(); fields["min"] != 10.0 || fields["max"] != 100.0 || fields["mean"] != 28.0 {
		t.Fatalf("unexpected statistics fields %v", fields)
	}
	if logs.FilterMessage("2024-01-05: MODERATE | MDI=100.00 | z=1.79").Len() != 1 {
		t.Fatalf("expected per-anomaly log line, got %v", logs.All())
	}

	listed, err := uc.ListAnomalies(context.Background())
	if err != nil {
		t.Fatalf("list anomalies: %v", err)
	}
	if len(listed) != 1 || listed[0].Message != "Midnight doomscroll spike detected. MDI=100.00, z=1.79" {
		t.Fatalf("unexpected listing %+v", listed)
	}
	if listed[0].DetectedAt != "2024-02-01T06:30:00Z" {
		t.Fatalf("unexpected detected_at %q", listed[0].DetectedAt)
	}
}

func TestDetectOnThresholdIsNotAnomalous(t *testing.T) {
	t.Parallel()
	db, _, uc := setup(t, 1.5, 10, 10, 10, 100)

	out, err := uc.Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(out.Anomalies) != 0 || out.ZScoresStored != 4 {
		t.Fatalf("unexpected output %+v", out)
	}
	if got := zScores(t, db)[3].Float64; got != 1.5 {
		t.Fatalf("expected z=1.5, got %f", got)
	}
}

func TestDetectRejectsNonPositiveThreshold(t *testing.T) {
	t.Parallel()
	_, _, uc := setup(t, 0, 1, 2, 3)
	if _, err := uc.Detect(context.Background()); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
