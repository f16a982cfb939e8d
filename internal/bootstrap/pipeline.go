package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	anomalydto "doomscroll/internal/modules/anomaly/dto"
	ingestdto "doomscroll/internal/modules/ingest/dto"
	scoringdto "doomscroll/internal/modules/scoring/dto"
)

// PipelineResult collects the output of every stage that completed.
type PipelineResult struct {
	Ingest ingestdto.IngestOutput
	Score  scoringdto.ScoreOutput
	Detect anomalydto.DetectOutput
}

// RunPipeline executes ingest, score and detect strictly in order. A failing
// stage stops the run; stages that already committed stay committed.
func (a *App) RunPipeline(ctx context.Context, rawPath, exportPath string) (PipelineResult, error) {
	var result PipelineResult
	a.Logger.Info("pipeline started", zap.String("input", rawPath))

	ingested, err := a.IngestCLI.Ingest(ctx, rawPath, exportPath)
	if err != nil {
		return result, a.abort("ingest", err)
	}
	result.Ingest = ingested

	scored, err := a.ScoringCLI.Score(ctx)
	if err != nil {
		return result, a.abort("score", err)
	}
	result.Score = scored

	detected, err := a.AnomalyCLI.Detect(ctx)
	if err != nil {
		return result, a.abort("detect", err)
	}
	result.Detect = detected

	a.Logger.Info("pipeline finished",
		zap.Int("sessions_inserted", ingested.Inserted),
		zap.Int("days_scored", scored.Inserted),
		zap.Int("anomalies", len(detected.Anomalies)),
		zap.Bool("detection_skipped", detected.Skipped),
	)
	return result, nil
}

func (a *App) abort(stage string, err error) error {
	a.Logger.Error("pipeline aborted", zap.String("stage", stage), zap.Error(err))
	return fmt.Errorf("%s stage: %w", stage, err)
}
