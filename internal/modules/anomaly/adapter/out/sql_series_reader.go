package out

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doomscroll/internal/modules/anomaly/domain"
	anomalyout "doomscroll/internal/modules/anomaly/port/out"
	"doomscroll/internal/platform/database"
)

type seriesRow struct {
	DateRecorded database.Date `db:"date_recorded"`
	MDIScore     float64       `db:"mdi_score"`
}

type SQLSeriesReader struct {
	db *sqlx.DB
}

func NewSQLSeriesReader(db *sqlx.DB) anomalyout.SeriesReader {
	return &SQLSeriesReader{db: db}
}

func (r *SQLSeriesReader) ListSeries(ctx context.Context) ([]domain.Day, error) {
	var rows []seriesRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT date_recorded, mdi_score FROM mdi_daily ORDER BY date_recorded, id`); err != nil {
		return nil, fmt.Errorf("select mdi series: %w", err)
	}
	out := make([]domain.Day, 0, len(rows))
	for _, row := range rows {
		date, err := row.DateRecorded.Time()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Day{Date: date, MDIScore: row.MDIScore})
	}
	return out, nil
}
