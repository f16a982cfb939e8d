package in

import (
	"context"

	"doomscroll/internal/modules/anomaly/dto"
	anomalyin "doomscroll/internal/modules/anomaly/port/in"
)

type CLIHandler struct {
	usecase anomalyin.Usecase
}

func NewCLIHandler(usecase anomalyin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Detect(ctx context.Context) (dto.DetectOutput, error) {
	return h.usecase.Detect(ctx)
}

func (h CLIHandler) ListAnomalies(ctx context.Context) ([]dto.AnomalyOutput, error) {
	return h.usecase.ListAnomalies(ctx)
}
