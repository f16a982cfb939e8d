package out

import (
	"context"

	"doomscroll/internal/modules/scoring/domain"
)

type SessionReader interface {
	ListSessions(ctx context.Context) ([]domain.Session, error)
}

type DailyStore interface {
	// Append inserts every aggregate in one transaction.
	Append(ctx context.Context, days []domain.DailyAggregate) (int, error)
	// List returns stored days ascending by date.
	List(ctx context.Context) ([]domain.DailyAggregate, error)
}
