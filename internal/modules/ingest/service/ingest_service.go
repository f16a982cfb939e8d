package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"doomscroll/internal/modules/ingest/domain"
	ingestout "doomscroll/internal/modules/ingest/port/out"
	apperrors "doomscroll/internal/platform/errors"
	"doomscroll/internal/platform/metrics"
)

const stageName = "ingest"

// Report is the outcome of one ingest run.
type Report struct {
	Stats         domain.NormalizeStats
	Summary       domain.Summary
	Inserted      int
	TotalSessions int
	ExportPath    string
}

type IngestService struct {
	source     ingestout.RawSource
	store      ingestout.SessionStore
	exporter   ingestout.SessionExporter
	normalizer domain.Normalizer
	logger     *zap.Logger
	metrics    *metrics.Recorder
}

func NewIngestService(
	source ingestout.RawSource,
	store ingestout.SessionStore,
	exporter ingestout.SessionExporter,
	normalizer domain.Normalizer,
	logger *zap.Logger,
	recorder *metrics.Recorder,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		source:     source,
		store:      store,
		exporter:   exporter,
		normalizer: normalizer,
		logger:     logger.Named(stageName),
		metrics:    recorder,
	}
}

// Ingest reads the raw export at path, normalizes and flags it, and appends the
// resulting sessions in a single transaction. When exportPath is set the
// cleaned sessions are also written there as CSV.
func (s *IngestService) Ingest(ctx context.Context, path, exportPath string) (report Report, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveStage(stageName, started, err) }()

	if strings.TrimSpace(path) == "" {
		return Report{}, fmt.Errorf("%w: raw input path is required", apperrors.ErrInvalidInput)
	}
	log := s.logger.With(zap.String("path", path))

	batch, err := s.source.Read(ctx, path)
	if err != nil {
		log.Error("read raw input failed", zap.Error(err))
		return Report{}, err
	}
	s.metrics.RawRows(len(batch.Records))

	result, err := s.normalizer.Normalize(batch)
	if err != nil {
		log.Error("normalize failed", zap.Strings("columns", batch.Columns), zap.Error(err))
		return Report{}, fmt.Errorf("normalize %s: %w", path, err)
	}
	report.Stats = result.Stats
	report.Summary = domain.Summarize(result.Sessions)
	for reason, n := range result.Stats.Dropped() {
		s.metrics.Dropped(reason, n)
	}
	s.logNormalized(log, result, report.Summary)

	// The export is written before loading so a failed export leaves the
	// store untouched.
	if exportPath != "" {
		if err := s.exporter.Export(ctx, exportPath, result.Sessions); err != nil {
			log.Error("export cleaned sessions failed", zap.String("export_path", exportPath), zap.Error(err))
			return Report{}, err
		}
		report.ExportPath = exportPath
		log.Info("cleaned sessions exported", zap.String("export_path", exportPath), zap.Int("rows", len(result.Sessions)))
	}

	if len(result.Sessions) == 0 {
		log.Warn("no valid sessions after normalization, nothing to load")
	} else {
		inserted, err := s.store.Append(ctx, result.Sessions)
		if err != nil {
			log.Error("load sessions failed", zap.Error(err))
			return Report{}, err
		}
		report.Inserted = inserted
		s.metrics.SessionsInserted(inserted)
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return Report{}, err
	}
	report.TotalSessions = total
	log.Info("sessions loaded", zap.Int("inserted", report.Inserted), zap.Int("total_sessions", total))
	return report, nil
}

func (s *IngestService) logNormalized(log *zap.Logger, result domain.NormalizeResult, sum domain.Summary) {
	st := result.Stats
	fields := []zap.Field{
		zap.Int("read", st.Read),
		zap.Int("kept", st.Kept),
		zap.Int("dropped_invalid_date", st.InvalidDate),
		zap.Int("dropped_invalid_hour", st.InvalidHour),
		zap.Int("dropped_missing_required", st.MissingRequired),
		zap.Int("dropped_invalid_duration", st.InvalidDuration),
		zap.Int("dropped_duplicate", st.Duplicates),
		zap.Int("coerced_user_ids", st.CoercedUserIDs),
		zap.Bool("hour_from_timestamp", st.HourFromTimestamp),
		zap.Any("schema", result.Schema),
	}
	log.Info("raw records normalized", fields...)
	if st.CoercedUserIDs > 0 {
		log.Warn("non-numeric user ids replaced with 0", zap.Int("rows", st.CoercedUserIDs))
	}

	if sum.Total == 0 {
		return
	}
	log.Info("session summary",
		zap.String("first_date", sum.FirstDate.Format("2006-01-02")),
		zap.String("last_date", sum.LastDate.Format("2006-01-02")),
		zap.Int("unique_users", sum.UniqueUsers),
		zap.Int("feed_sessions", sum.FeedSessions),
		zap.Int("midnight_sessions", sum.MidnightSessions),
		zap.Int("midnight_feed_sessions", sum.MidnightFeedSessions),
		zap.Strings("feed_apps", sum.FeedApps),
	)
}
