package out

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doomscroll/internal/modules/scoring/domain"
	scoringout "doomscroll/internal/modules/scoring/port/out"
	"doomscroll/internal/platform/database"
)

type sessionRow struct {
	SessionDate     database.Date `db:"session_date"`
	SessionWeekday  string        `db:"session_weekday"`
	DurationMinutes float64       `db:"duration_minutes"`
	IsFeedApp       bool          `db:"is_feed_app"`
	IsMidnight      bool          `db:"is_midnight"`
}

type SQLSessionReader struct {
	db *sqlx.DB
}

func NewSQLSessionReader(db *sqlx.DB) scoringout.SessionReader {
	return &SQLSessionReader{db: db}
}

func (r *SQLSessionReader) ListSessions(ctx context.Context) ([]domain.Session, error) {
	const query = `
SELECT session_date, session_weekday, duration_minutes, is_feed_app, is_midnight
FROM sessions
ORDER BY session_date, id`
	var rows []sessionRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select sessions: %w", err)
	}
	out := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		date, err := row.SessionDate.Time()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Session{
			Date:            date,
			Weekday:         row.SessionWeekday,
			DurationMinutes: row.DurationMinutes,
			IsFeedApp:       row.IsFeedApp,
			IsMidnight:      row.IsMidnight,
		})
	}
	return out, nil
}
