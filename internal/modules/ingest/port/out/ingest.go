package out

import (
	"context"

	"doomscroll/internal/modules/ingest/domain"
)

// RawSource reads every record of a raw usage export.
type RawSource interface {
	Read(ctx context.Context, path string) (domain.RawBatch, error)
}

type SessionStore interface {
	// Append inserts all sessions atomically and returns how many were written.
	Append(ctx context.Context, sessions []domain.Session) (int, error)
	Count(ctx context.Context) (int, error)
}

type SessionExporter interface {
	Export(ctx context.Context, path string, sessions []domain.Session) error
}
