package in

import (
	"context"

	"doomscroll/internal/modules/anomaly/dto"
)

type Usecase interface {
	Detect(ctx context.Context) (dto.DetectOutput, error)
	ListAnomalies(ctx context.Context) ([]dto.AnomalyOutput, error)
}
