package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"doomscroll/internal/modules/scoring/domain"
	scoringout "doomscroll/internal/modules/scoring/port/out"
	"doomscroll/internal/platform/metrics"
)

const stageName = "score"

type Report struct {
	SessionsRead int
	Inserted     int
	Days         []domain.DailyAggregate
	Stats        domain.Description
}

type ScoringService struct {
	sessions scoringout.SessionReader
	daily    scoringout.DailyStore
	logger   *zap.Logger
	metrics  *metrics.Recorder
}

func NewScoringService(sessions scoringout.SessionReader, daily scoringout.DailyStore, logger *zap.Logger, recorder *metrics.Recorder) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScoringService{sessions: sessions, daily: daily, logger: logger.Named(stageName), metrics: recorder}
}

// Score aggregates every stored session into daily MDI rows and appends them.
// Re-running appends the same days again.
func (s *ScoringService) Score(ctx context.Context) (report Report, err error) {
	started := time.Now()
	defer func() { s.metrics.ObserveStage(stageName, started, err) }()

	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		s.logger.Error("load sessions failed", zap.Error(err))
		return Report{}, err
	}
	report.SessionsRead = len(sessions)
	if len(sessions) == 0 {
		s.logger.Warn("no sessions stored, nothing to score")
		return report, nil
	}

	days := domain.Aggregate(sessions)
	inserted, err := s.daily.Append(ctx, days)
	if err != nil {
		s.logger.Error("store daily scores failed", zap.Int("days", len(days)), zap.Error(err))
		return Report{}, err
	}
	s.metrics.DaysScored(inserted)

	report.Inserted = inserted
	report.Days = days
	report.Stats = domain.Describe(days)
	s.logger.Info("daily MDI computed",
		zap.Int("sessions", len(sessions)),
		zap.Int("days", inserted),
		zap.String("first_date", days[0].Date.Format("2006-01-02")),
		zap.String("last_date", days[len(days)-1].Date.Format("2006-01-02")),
	)
	s.logger.Info("MDI statistics",
		zap.Int("count", report.Stats.Count),
		zap.Float64("mean", report.Stats.Mean),
		zap.Float64("std", report.Stats.Std),
		zap.Float64("min", report.Stats.Min),
		zap.Float64("max", report.Stats.Max),
	)
	return report, nil
}

func (s *ScoringService) ListDaily(ctx context.Context) ([]domain.DailyAggregate, error) {
	return s.daily.List(ctx)
}
