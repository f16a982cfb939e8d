package usecase

import (
	"context"

	"doomscroll/internal/modules/scoring/domain"
	"doomscroll/internal/modules/scoring/dto"
	scoringin "doomscroll/internal/modules/scoring/port/in"
	"doomscroll/internal/modules/scoring/service"
)

type Interactor struct {
	svc *service.ScoringService
}

func NewInteractor(svc *service.ScoringService) scoringin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Score(ctx context.Context) (dto.ScoreOutput, error) {
	report, err := i.svc.Score(ctx)
	if err != nil {
		return dto.ScoreOutput{}, err
	}
	return dto.ScoreOutput{
		SessionsRead: report.SessionsRead,
		Inserted:     report.Inserted,
		Days:         toDailyOutputs(report.Days),
		Stats: dto.StatsOutput{
			Count: report.Stats.Count,
			Mean:  report.Stats.Mean,
			Std:   report.Stats.Std,
			Min:   report.Stats.Min,
			Max:   report.Stats.Max,
		},
	}, nil
}

func (i *Interactor) ListDaily(ctx context.Context) ([]dto.DailyOutput, error) {
	days, err := i.svc.ListDaily(ctx)
	if err != nil {
		return nil, err
	}
	return toDailyOutputs(days), nil
}

func toDailyOutputs(days []domain.DailyAggregate) []dto.DailyOutput {
	out := make([]dto.DailyOutput, 0, len(days))
	for _, d := range days {
		out = append(out, dto.DailyOutput{
			Date:                     d.Date.Format("2006-01-02"),
			Weekday:                  d.Weekday,
			FeedTimeMinutes:          d.FeedTimeMinutes,
			TotalMidnightTimeMinutes: d.TotalMidnightTimeMinutes,
			AvgFeedSessionMinutes:    d.AvgFeedSessionMinutes,
			NumFeedMidnightSessions:  d.NumFeedMidnightSessions,
			NumMidnightSessions:      d.NumMidnightSessions,
			MDIScore:                 d.MDIScore,
			ZScore:                   d.ZScore,
		})
	}
	return out
}
