package in

import (
	"context"

	"doomscroll/internal/modules/ingest/dto"
)

type Usecase interface {
	Ingest(ctx context.Context, input dto.IngestInput) (dto.IngestOutput, error)
}
