package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	ingestout "doomscroll/internal/modules/ingest/adapter/out"
	"doomscroll/internal/modules/ingest/domain"
	"doomscroll/internal/modules/ingest/dto"
	"doomscroll/internal/modules/ingest/service"
	"doomscroll/internal/modules/ingest/usecase"
	"doomscroll/internal/platform/config"
	"doomscroll/internal/platform/database"
	apperrors "doomscroll/internal/platform/errors"
	"doomscroll/internal/platform/metrics"
)

const rawCSV = `user_id,app,date,duration,category
1,TikTok,2024-01-02 02:00,30,Social
1,TikTok,2024-01-02 02:00,30,Social
2,Maps,2024-01-02 14:10,12,
3,Instagram,2024-13-45,5,Social
4,Reddit,2024-01-03 01:15,0,Social
5,,2024-01-03 01:15,9,Social
abc,YouTube Shorts,2024-01-03 03:30,15.5,Video
`

func newInteractor(t *testing.T) (*observer.ObservedLogs, func(context.Context, dto.IngestInput) (dto.IngestOutput, error)) {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "data", "mdi.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zap.InfoLevel)
	pipeline := config.Default().Pipeline
	normalizer := domain.NewNormalizer(domain.NewFlagger(pipeline.FeedAppSet(), pipeline.MidnightHourSet()), nil)
	svc := service.NewIngestService(
		ingestout.NewCSVSource(),
		ingestout.NewSQLSessionStore(db, pipeline.InsertChunkSize),
		ingestout.NewCSVExporter(),
		normalizer,
		zap.New(core),
		metrics.New(),
	)
	return logs, usecase.NewInteractor(svc).Ingest
}

func TestIngestNormalizesLoadsAndExports(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(rawPath, []byte(rawCSV), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	exportPath := filepath.Join(dir, "processed", "cleaned_sessions.csv")
	logs, ingest := newInteractor(t)

	out, err := ingest(context.Background(), dto.IngestInput{Path: rawPath, ExportPath: exportPath})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if out.Read != 7 || out.Kept != 3 || out.Inserted != 3 || out.TotalSessions != 3 {
		t.Fatalf("unexpected counts %+v", out)
	}
	if out.Dropped[domain.DropDuplicate] != 1 || out.Dropped[domain.DropInvalidDate] != 1 ||
		out.Dropped[domain.DropInvalidDuration] != 1 || out.Dropped[domain.DropMissingRequired] != 1 {
		t.Fatalf("unexpected drop counters %+v", out.Dropped)
	}
	if out.CoercedUserIDs != 1 || out.DefaultCategory != 1 {
		t.Fatalf("unexpected coercions %+v", out)
	}
	if out.FirstDate != "2024-01-02" || out.LastDate != "2024-01-03" {
		t.Fatalf("unexpected date range %s..%s", out.FirstDate, out.LastDate)
	}
	if out.MidnightFeedSessions != 2 || out.UniqueUsers != 3 {
		t.Fatalf("unexpected summary %+v", out)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("expected export file: %v", err)
	}
	if logs.FilterMessage("sessions loaded").Len() != 1 {
		t.Fatalf("expected load log line")
	}
	if logs.FilterMessage("non-numeric user ids replaced with 0").Len() != 1 {
		t.Fatalf("expected coercion warning")
	}

	again, err := ingest(context.Background(), dto.IngestInput{Path: rawPath})
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if again.TotalSessions != 6 {
		t.Fatalf("re-ingest appends, expected 6 sessions, got %d", again.TotalSessions)
	}
}

func TestIngestMissingRequiredColumnFailsWithoutWrites(t *testing.T) {
	t.Parallel()
	rawPath := filepath.Join(t.TempDir(), "raw.csv")
	if err := os.WriteFile(rawPath, []byte("user_id,app_name,duration\n1,TikTok,5\n"), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	_, ingest := newInteractor(t)

	_, err := ingest(context.Background(), dto.IngestInput{Path: rawPath})
	if !errors.Is(err, apperrors.ErrMissingColumn) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestIngestFailedExportLoadsNothing(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "raw.csv")
	if err := os.WriteFile(rawPath, []byte(rawCSV), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	logs, ingest := newInteractor(t)

	// The export directory would have to live under a regular file.
	_, err := ingest(context.Background(), dto.IngestInput{Path: rawPath, ExportPath: filepath.Join(blocker, "cleaned_sessions.csv")})
	if err == nil {
		t.Fatalf("expected export failure")
	}
	if logs.FilterMessage("export cleaned sessions failed").Len() != 1 {
		t.Fatalf("expected export failure log")
	}

	out, err := ingest(context.Background(), dto.IngestInput{Path: rawPath})
	if err != nil {
		t.Fatalf("retry ingest: %v", err)
	}
	if out.Inserted != 3 || out.TotalSessions != 3 {
		t.Fatalf("failed export must not load sessions, got %+v", out)
	}
}

func TestIngestAllRowsDroppedStillSucceeds(t *testing.T) {
	t.Parallel()
	rawPath := filepath.Join(t.TempDir(), "raw.csv")
	if err := os.WriteFile(rawPath, []byte("user_id,app_name,date,duration\n1,TikTok,2024-01-01,-3\n"), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	logs, ingest := newInteractor(t)

	out, err := ingest(context.Background(), dto.IngestInput{Path: rawPath})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if out.Inserted != 0 || out.TotalSessions != 0 || out.FirstDate != "" {
		t.Fatalf("unexpected output %+v", out)
	}
	if logs.FilterMessage("no valid sessions after normalization, nothing to load").Len() != 1 {
		t.Fatalf("expected empty-load warning")
	}
}

func TestIngestRequiresPath(t *testing.T) {
	t.Parallel()
	_, ingest := newInteractor(t)
	if _, err := ingest(context.Background(), dto.IngestInput{}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
