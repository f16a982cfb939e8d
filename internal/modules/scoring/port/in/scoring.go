package in

import (
	"context"

	"doomscroll/internal/modules/scoring/dto"
)

type Usecase interface {
	Score(ctx context.Context) (dto.ScoreOutput, error)
	ListDaily(ctx context.Context) ([]dto.DailyOutput, error)
}
