package out

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doomscroll/internal/modules/scoring/domain"
	scoringout "doomscroll/internal/modules/scoring/port/out"
	"doomscroll/internal/platform/database"
	"doomscroll/internal/platform/tx"
)

const insertDailySQL = `
INSERT INTO mdi_daily (date_recorded, weekday, feed_time_minutes, total_midnight_time_minutes, avg_feed_session_minutes, num_feed_midnight_sessions, num_midnight_sessions, mdi_score)
VALUES (:date_recorded, :weekday, :feed_time_minutes, :total_midnight_time_minutes, :avg_feed_session_minutes, :num_feed_midnight_sessions, :num_midnight_sessions, :mdi_score)`

type dailyRow struct {
	DateRecorded             database.Date `db:"date_recorded"`
	Weekday                  string        `db:"weekday"`
	FeedTimeMinutes          float64       `db:"feed_time_minutes"`
	TotalMidnightTimeMinutes float64       `db:"total_midnight_time_minutes"`
	AvgFeedSessionMinutes    float64       `db:"avg_feed_session_minutes"`
	NumFeedMidnightSessions  int           `db:"num_feed_midnight_sessions"`
	NumMidnightSessions      int           `db:"num_midnight_sessions"`
	MDIScore                 float64       `db:"mdi_score"`
	ZScore                   *float64      `db:"z_score"`
}

type SQLDailyStore struct {
	db        *sqlx.DB
	chunkSize int
}

func NewSQLDailyStore(db *sqlx.DB, chunkSize int) scoringout.DailyStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &SQLDailyStore{db: db, chunkSize: chunkSize}
}

func (s *SQLDailyStore) Append(ctx context.Context, days []domain.DailyAggregate) (int, error) {
	if len(days) == 0 {
		return 0, nil
	}
	rows := make([]dailyRow, 0, len(days))
	for _, d := range days {
		rows = append(rows, dailyRow{
			DateRecorded:             database.DateOf(d.Date),
			Weekday:                  d.Weekday,
			FeedTimeMinutes:          d.FeedTimeMinutes,
			TotalMidnightTimeMinutes: d.TotalMidnightTimeMinutes,
			AvgFeedSessionMinutes:    d.AvgFeedSessionMinutes,
			NumFeedMidnightSessions:  d.NumFeedMidnightSessions,
			NumMidnightSessions:      d.NumMidnightSessions,
			MDIScore:                 d.MDIScore,
		})
	}
	err := tx.Run(ctx, s.db, func(t *sqlx.Tx) error {
		for start := 0; start < len(rows); start += s.chunkSize {
			end := min(start+s.chunkSize, len(rows))
			if _, err := t.NamedExecContext(ctx, insertDailySQL, rows[start:end]); err != nil {
				return fmt.Errorf("insert mdi_daily rows %d-%d: %w", start, end, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *SQLDailyStore) List(ctx context.Context) ([]domain.DailyAggregate, error) {
	const query = `
SELECT date_recorded, weekday, feed_time_minutes, total_midnight_time_minutes, avg_feed_session_minutes,
       num_feed_midnight_sessions, num_midnight_sessions, mdi_score, z_score
FROM mdi_daily
ORDER BY date_recorded, id`
	var rows []dailyRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("select mdi_daily: %w", err)
	}
	out := make([]domain.DailyAggregate, 0, len(rows))
	for _, row := range rows {
		date, err := row.DateRecorded.Time()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.DailyAggregate{
			Date:                     date,
			Weekday:                  row.Weekday,
			FeedTimeMinutes:          row.FeedTimeMinutes,
			TotalMidnightTimeMinutes: row.TotalMidnightTimeMinutes,
			AvgFeedSessionMinutes:    row.AvgFeedSessionMinutes,
			NumFeedMidnightSessions:  row.NumFeedMidnightSessions,
			NumMidnightSessions:      row.NumMidnightSessions,
			MDIScore:                 row.MDIScore,
			ZScore:                   row.ZScore,
		})
	}
	return out, nil
}
