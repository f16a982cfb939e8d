package in

import (
	"context"

	"doomscroll/internal/modules/ingest/dto"
	ingestin "doomscroll/internal/modules/ingest/port/in"
)

type CLIHandler struct {
	usecase ingestin.Usecase
}

func NewCLIHandler(usecase ingestin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Ingest(ctx context.Context, path, exportPath string) (dto.IngestOutput, error) {
	return h.usecase.Ingest(ctx, dto.IngestInput{Path: path, ExportPath: exportPath})
}
