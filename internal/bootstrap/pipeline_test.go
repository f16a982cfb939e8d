package bootstrap_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"doomscroll/internal/bootstrap"
	"doomscroll/internal/platform/clock"
	"doomscroll/internal/platform/config"
	apperrors "doomscroll/internal/platform/errors"
	"doomscroll/internal/platform/id"
)

func newApp(t *testing.T) (*bootstrap.App, *observer.ObservedLogs, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "data", "doomscroll.db")
	cfg.Metrics.Textfile = filepath.Join(dir, "metrics", "doomscroll.prom")

	core, logs := observer.New(zap.DebugLevel)
	app, err := bootstrap.NewWithOptions(context.Background(), cfg, bootstrap.Options{
		Logger: zap.New(core),
		Clock:  clock.Fixed{At: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		IDs:    id.Static("run-1"),
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return app, logs, dir
}

func writeRaw(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	return path
}

func TestPipelineDuplicateFeedSessionScenario(t *testing.T) {
	t.Parallel()
	app, logs, dir := newApp(t)
	raw := writeRaw(t, dir, "user_id,app,date,duration\n"+
		"1,TikTok,2024-01-02 02:00,30\n"+
		"1,TikTok,2024-01-02 02:00,30\n")

	res, err := app.RunPipeline(context.Background(), raw, "")
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Ingest.Inserted != 1 || res.Ingest.Dropped["duplicate"] != 1 {
		t.Fatalf("unexpected ingest %+v", res.Ingest)
	}
	if len(res.Score.Days) != 1 {
		t.Fatalf("expected one day, got %+v", res.Score.Days)
	}
	day := res.Score.Days[0]
	if day.Date != "2024-01-02" || day.FeedTimeMinutes != 30 || day.TotalMidnightTimeMinutes != 30 || day.AvgFeedSessionMinutes != 30 {
		t.Fatalf("unexpected aggregate %+v", day)
	}
	if math.Abs(day.MDIScore-29.999) > 1e-3 {
		t.Fatalf("unexpected MDI %f", day.MDIScore)
	}
	if !res.Detect.Skipped || len(res.Detect.Anomalies) != 0 {
		t.Fatalf("single day must skip detection: %+v", res.Detect)
	}

	for _, entry := range logs.All() {
		if entry.ContextMap()["run_id"] != "run-1" {
			t.Fatalf("log line %q missing run id", entry.Message)
		}
	}

	if err := app.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	metricsText := mustRead(t, filepath.Join(dir, "metrics", "doomscroll.prom"))
	for _, want := range []string{
		"doomscroll_sessions_inserted_total 1",
		`doomscroll_dropped_rows_total{reason="duplicate"} 1`,
		"doomscroll_days_scored_total 1",
	} {
		if !strings.Contains(metricsText, want) {
			t.Fatalf("metrics textfile missing %q:\n%s", want, metricsText)
		}
	}
}

func TestPipelineStopsAtFailingStage(t *testing.T) {
	t.Parallel()
	app, logs, dir := newApp(t)
	t.Cleanup(func() { _ = app.Close() })
	raw := writeRaw(t, dir, "user_id,app_name,duration\n1,TikTok,5\n")

	_, err := app.RunPipeline(context.Background(), raw, "")
	if !errors.Is(err, apperrors.ErrMissingColumn) {
		t.Fatalf("expected missing column, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "ingest stage:") {
		t.Fatalf("expected ingest stage error, got %v", err)
	}
	if logs.FilterMessage("pipeline aborted").Len() != 1 {
		t.Fatalf("expected abort log")
	}
	daily, err := app.ScoringCLI.ListDaily(context.Background())
	if err != nil || len(daily) != 0 {
		t.Fatalf("later stages must not run: %v %v", daily, err)
	}
}

func TestPipelineFlagsSpikeAcrossDays(t *testing.T) {
	t.Parallel()
	app, _, dir := newApp(t)
	t.Cleanup(func() { _ = app.Close() })

	var b strings.Builder
	b.WriteString("user_id,app_name,date,duration_minutes\n")
	// Nine quiet nights: one 10 minute feed session plus 5 minutes of other use.
	for d := 1; d <= 9; d++ {
		date := time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		b.WriteString("1,TikTok," + date + " 01:00,10\n")
		b.WriteString("1,Kindle," + date + " 02:00,5\n")
	}
	b.WriteString("1,TikTok,2024-01-10 01:00,120\n")
	raw := writeRaw(t, dir, b.String())

	res, err := app.RunPipeline(context.Background(), raw, filepath.Join(dir, "processed", "cleaned_sessions.csv"))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Detect.Skipped || res.Detect.ZScoresStored != 10 {
		t.Fatalf("unexpected detection %+v", res.Detect)
	}
	if len(res.Detect.Anomalies) != 1 || res.Detect.Anomalies[0].Date != "2024-01-10" || res.Detect.Anomalies[0].Severity != "extreme" {
		t.Fatalf("unexpected anomalies %+v", res.Detect.Anomalies)
	}
	daily, err := app.ScoringCLI.ListDaily(context.Background())
	if err != nil {
		t.Fatalf("list daily: %v", err)
	}
	for _, d := range daily {
		if d.ZScore == nil {
			t.Fatalf("day %s missing z-score", d.Date)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "processed", "cleaned_sessions.csv")); err != nil {
		t.Fatalf("expected cleaned export: %v", err)
	}
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(raw)
}
