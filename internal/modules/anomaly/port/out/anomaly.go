package out

import (
	"context"

	"doomscroll/internal/modules/anomaly/domain"
)

// SeriesReader returns the stored daily MDI series ascending by date.
type SeriesReader interface {
	ListSeries(ctx context.Context) ([]domain.Day, error)
}

type AnomalyStore interface {
	// Save appends anomalies and writes every (date, z) pair in one
	// transaction.
	Save(ctx context.Context, zscores []domain.ZScore, anomalies []domain.Anomaly) error
	// List returns logged anomalies ascending by date.
	List(ctx context.Context) ([]domain.Anomaly, error)
}
