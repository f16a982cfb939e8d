package out

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doomscroll/internal/modules/anomaly/domain"
	anomalyout "doomscroll/internal/modules/anomaly/port/out"
	"doomscroll/internal/platform/database"
	"doomscroll/internal/platform/tx"
)

const (
	insertAnomalySQL = `
INSERT INTO anomaly_log (date_of_anomaly, mdi_score, z_score, severity, message, detected_at)
VALUES (:date_of_anomaly, :mdi_score, :z_score, :severity, :message, :detected_at)`
	updateZScoreSQL = `UPDATE mdi_daily SET z_score = ? WHERE date_recorded = ?`
)

type anomalyRow struct {
	DateOfAnomaly database.Date    `db:"date_of_anomaly"`
	MDIScore      float64          `db:"mdi_score"`
	ZScore        float64          `db:"z_score"`
	Severity      string           `db:"severity"`
	Message       string           `db:"message"`
	DetectedAt    database.Instant `db:"detected_at"`
}

type SQLAnomalyStore struct {
	db        *sqlx.DB
	chunkSize int
}

func NewSQLAnomalyStore(db *sqlx.DB, chunkSize int) anomalyout.AnomalyStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &SQLAnomalyStore{db: db, chunkSize: chunkSize}
}

func (s *SQLAnomalyStore) Save(ctx context.Context, zscores []domain.ZScore, anomalies []domain.Anomaly) error {
	rows := make([]anomalyRow, 0, len(anomalies))
	for _, a := range anomalies {
		if err := a.Severity.Validate(); err != nil {
			return err
		}
		rows = append(rows, anomalyRow{
			DateOfAnomaly: database.DateOf(a.Date),
			MDIScore:      a.MDIScore,
			ZScore:        a.ZScore,
			Severity:      string(a.Severity),
			Message:       a.Message,
			DetectedAt:    database.Instant{Time: a.DetectedAt},
		})
	}

	return tx.Run(ctx, s.db, func(t *sqlx.Tx) error {
		for start := 0; start < len(rows); start += s.chunkSize {
			end := min(start+s.chunkSize, len(rows))
			if _, err := t.NamedExecContext(ctx, insertAnomalySQL, rows[start:end]); err != nil {
				return fmt.Errorf("insert anomalies %d-%d: %w", start, end, err)
			}
		}
		if len(zscores) == 0 {
			return nil
		}
		stmt, err := t.PreparexContext(ctx, t.Rebind(updateZScoreSQL))
		if err != nil {
			return fmt.Errorf("prepare z-score update: %w", err)
		}
		defer stmt.Close()
		for _, z := range zscores {
			if _, err := stmt.ExecContext(ctx, z.Value, database.DateOf(z.Date)); err != nil {
				return fmt.Errorf("update z-score for %s: %w", database.DateOf(z.Date), err)
			}
		}
		return nil
	})
}

func (s *SQLAnomalyStore) List(ctx context.Context) ([]domain.Anomaly, error) {
	const query = `
SELECT date_of_anomaly, mdi_score, z_score, severity, message, detected_at
FROM anomaly_log
ORDER BY date_of_anomaly, id`
	var rows []anomalyRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select anomaly_log: %w", err)
	}
	out := make([]domain.Anomaly, 0, len(rows))
	for _, row := range rows {
		date, err := row.DateOfAnomaly.Time()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Anomaly{
			Date:       date,
			MDIScore:   row.MDIScore,
			ZScore:     row.ZScore,
			Severity:   domain.Severity(row.Severity),
			Message:    row.Message,
			DetectedAt: row.DetectedAt.Time,
		})
	}
	return out, nil
}
