package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"doomscroll/internal/modules/anomaly/domain"
	anomalyout "doomscroll/internal/modules/anomaly/port/out"
	"doomscroll/internal/platform/clock"
	apperrors "doomscroll/internal/platform/errors"
	"doomscroll/internal/platform/metrics"
)

const stageName = "detect"

type AnomalyService struct {
	series    anomalyout.SeriesReader
	store     anomalyout.AnomalyStore
	clock     clock.Clock
	threshold float64
	logger    *zap.Logger
	metrics   *metrics.Recorder
}

func NewAnomalyService(
	series anomalyout.SeriesReader,
	store anomalyout.AnomalyStore,
	clock clock.Clock,
	threshold float64,
	logger *zap.Logger,
	recorder *metrics.Recorder,
) *AnomalyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnomalyService{
		series:    series,
		store:     store,
		clock:     clock,
		threshold: threshold,
		logger:    logger.Named(stageName),
		metrics:   recorder,
	}
}

func (s *AnomalyService) Threshold() float64 {
	return s.threshold
}

// Detect computes z-scores over the whole stored series, logs anomalies and
// writes z back onto every day. A degenerate series is reported as skipped.
func (s *AnomalyService) Detect(ctx context.Context) (result domain.Detection, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveStage(stageName, started, err) }()

	if s.threshold <= 0 {
		return domain.Detection{}, fmt.Errorf("%w: z-score threshold must be positive", apperrors.ErrInvalidInput)
	}
	days, err := s.series.ListSeries(ctx)
	if err != nil {
		s.logger.Error("load MDI series failed", zap.Error(err))
		return domain.Detection{}, err
	}

	result = domain.Detect(days, s.threshold, s.clock.Now())
	if result.Skipped {
		s.logger.Warn("anomaly detection skipped",
			zap.String("reason", result.SkipReason),
			zap.Int("days", result.Stats.Count),
		)
		return result, nil
	}
	s.logger.Info("MDI series statistics",
		zap.Int("days", result.Stats.Count),
		zap.Float64("mean", result.Stats.Mean),
		zap.Float64("std_dev", result.Stats.StdDev),
		zap.Float64("min", result.Stats.Min),
		zap.Float64("max", result.Stats.Max),
		zap.Float64("threshold", s.threshold),
	)

	if err := s.store.Save(ctx, result.ZScores, result.Anomalies); err != nil {
		s.logger.Error("store detection results failed", zap.Error(err))
		return domain.Detection{}, err
	}

	if len(result.Anomalies) == 0 {
		s.logger.Info("no anomalies detected")
	}
	for _, a := range result.Anomalies {
		s.metrics.Anomaly(string(a.Severity))
		s.logger.Info(fmt.Sprintf("%s: %s | MDI=%.2f | z=%.2f",
			a.Date.Format("2006-01-02"), strings.ToUpper(string(a.Severity)), a.MDIScore, a.ZScore))
	}
	s.logger.Info("z-scores updated", zap.Int("days", len(result.ZScores)), zap.Int("anomalies", len(result.Anomalies)))
	return result, nil
}

func (s *AnomalyService) ListAnomalies(ctx context.Context) ([]domain.Anomaly, error) {
	return s.store.List(ctx)
}
