package in

import (
	"context"

	"doomscroll/internal/modules/scoring/dto"
	scoringin "doomscroll/internal/modules/scoring/port/in"
)

type CLIHandler struct {
	usecase scoringin.Usecase
}

func NewCLIHandler(usecase scoringin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Score(ctx context.Context) (dto.ScoreOutput, error) {
	return h.usecase.Score(ctx)
}

func (h CLIHandler) ListDaily(ctx context.Context) ([]dto.DailyOutput, error) {
	return h.usecase.ListDaily(ctx)
}
