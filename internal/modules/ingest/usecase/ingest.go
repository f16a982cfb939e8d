package usecase

import (
	"context"

	"doomscroll/internal/modules/ingest/dto"
	ingestin "doomscroll/internal/modules/ingest/port/in"
	"doomscroll/internal/modules/ingest/service"
)

type Interactor struct {
	svc *service.IngestService
}

func NewInteractor(svc *service.IngestService) ingestin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Ingest(ctx context.Context, input dto.IngestInput) (dto.IngestOutput, error) {
	report, err := i.svc.Ingest(ctx, input.Path, input.ExportPath)
	if err != nil {
		return dto.IngestOutput{}, err
	}
	out := dto.IngestOutput{
		Path:                 input.Path,
		Read:                 report.Stats.Read,
		Kept:                 report.Stats.Kept,
		Inserted:             report.Inserted,
		TotalSessions:        report.TotalSessions,
		Dropped:              report.Stats.Dropped(),
		CoercedUserIDs:       report.Stats.CoercedUserIDs,
		DefaultCategory:      report.Stats.DefaultCategory,
		HourFromTimestamp:    report.Stats.HourFromTimestamp,
		UniqueUsers:          report.Summary.UniqueUsers,
		FeedSessions:         report.Summary.FeedSessions,
		MidnightSessions:     report.Summary.MidnightSessions,
		MidnightFeedSessions: report.Summary.MidnightFeedSessions,
		FeedApps:             report.Summary.FeedApps,
		ExportPath:           report.ExportPath,
	}
	if report.Summary.Total > 0 {
		out.FirstDate = report.Summary.FirstDate.Format("2006-01-02")
		out.LastDate = report.Summary.LastDate.Format("2006-01-02")
	}
	return out, nil
}
