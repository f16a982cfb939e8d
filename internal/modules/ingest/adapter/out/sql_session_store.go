package out

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"doomscroll/internal/modules/ingest/domain"
	ingestout "doomscroll/internal/modules/ingest/port/out"
	"doomscroll/internal/platform/database"
	"doomscroll/internal/platform/tx"
)

const insertSessionSQL = `
INSERT INTO sessions (user_id, app_name, app_category, session_date, session_hour, session_weekday, duration_minutes, is_feed_app, is_midnight)
VALUES (:user_id, :app_name, :app_category, :session_date, :session_hour, :session_weekday, :duration_minutes, :is_feed_app, :is_midnight)`

type sessionRow struct {
	UserID          int64         `db:"user_id"`
	AppName         string        `db:"app_name"`
	AppCategory     string        `db:"app_category"`
	SessionDate     database.Date `db:"session_date"`
	SessionHour     int           `db:"session_hour"`
	SessionWeekday  string        `db:"session_weekday"`
	DurationMinutes float64       `db:"duration_minutes"`
	IsFeedApp       bool          `db:"is_feed_app"`
	IsMidnight      bool          `db:"is_midnight"`
}

// SQLSessionStore appends sessions with multi-row inserts of chunkSize rows,
// all inside one transaction.
type SQLSessionStore struct {
	db        *sqlx.DB
	chunkSize int
}

func NewSQLSessionStore(db *sqlx.DB, chunkSize int) ingestout.SessionStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &SQLSessionStore{db: db, chunkSize: chunkSize}
}

func (s *SQLSessionStore) Append(ctx context.Context, sessions []domain.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}
	rows := make([]sessionRow, 0, len(sessions))
	for _, session := range sessions {
		if err := session.Validate(); err != nil {
			return 0, fmt.Errorf("session for user %d on %s: %w", session.UserID, database.DateOf(session.SessionDate), err)
		}
		rows = append(rows, sessionRow{
			UserID:          session.UserID,
			AppName:         session.AppName,
			AppCategory:     session.AppCategory,
			SessionDate:     database.DateOf(session.SessionDate),
			SessionHour:     session.SessionHour,
			SessionWeekday:  session.SessionWeekday,
			DurationMinutes: session.DurationMinutes,
			IsFeedApp:       session.IsFeedApp,
			IsMidnight:      session.IsMidnight,
		})
	}

	inserted := 0
	err := tx.Run(ctx, s.db, func(t *sqlx.Tx) error {
		for start := 0; start < len(rows); start += s.chunkSize {
			end := min(start+s.chunkSize, len(rows))
			if _, err := t.NamedExecContext(ctx, insertSessionSQL, rows[start:end]); err != nil {
				return fmt.Errorf("insert sessions %d-%d: %w", start, end, err)
			}
			inserted = end
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *SQLSessionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions`); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}
