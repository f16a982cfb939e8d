package usecase

import (
	"context"
	"time"

	"doomscroll/internal/modules/anomaly/domain"
	"doomscroll/internal/modules/anomaly/dto"
	anomalyin "doomscroll/internal/modules/anomaly/port/in"
	"doomscroll/internal/modules/anomaly/service"
)

type Interactor struct {
	svc *service.AnomalyService
}

func NewInteractor(svc *service.AnomalyService) anomalyin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Detect(ctx context.Context) (dto.DetectOutput, error) {
	result, err := i.svc.Detect(ctx)
	if err != nil {
		return dto.DetectOutput{}, err
	}
	return dto.DetectOutput{
		Skipped:    result.Skipped,
		SkipReason: result.SkipReason,
		Threshold:  i.svc.Threshold(),
		Stats: dto.StatsOutput{
			Count:  result.Stats.Count,
			Mean:   result.Stats.Mean,
			StdDev: result.Stats.StdDev,
			Min:    result.Stats.Min,
			Max:    result.Stats.Max,
		},
		ZScoresStored: len(result.ZScores),
		Anomalies:     toAnomalyOutputs(result.Anomalies),
	}, nil
}

func (i *Interactor) ListAnomalies(ctx context.Context) ([]dto.AnomalyOutput, error) {
	anomalies, err := i.svc.ListAnomalies(ctx)
	if err != nil {
		return nil, err
	}
	return toAnomalyOutputs(anomalies), nil
}

func toAnomalyOutputs(anomalies []domain.Anomaly) []dto.AnomalyOutput {
	out := make([]dto.AnomalyOutput, 0, len(anomalies))
	for _, a := range anomalies {
		out = append(out, dto.AnomalyOutput{
			Date:       a.Date.Format("2006-01-02"),
			MDIScore:   a.MDIScore,
			ZScore:     a.ZScore,
			Severity:   string(a.Severity),
			Message:    a.Message,
			DetectedAt: a.DetectedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
