package out_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	anomalyout "doomscroll/internal/modules/anomaly/adapter/out"
	"doomscroll/internal/modules/anomaly/domain"
	"doomscroll/internal/platform/config"
	"doomscroll/internal/platform/database"
)

var (
	day1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(context.Background(), config.DatabaseConfig{
		Driver: config.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "mdi.db"),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	for _, d := range []time.Time{day1, day2} {
		_, err := db.Exec(`
INSERT INTO mdi_daily (date_recorded, weekday, feed_time_minutes, total_midnight_time_minutes, avg_feed_session_minutes, num_feed_midnight_sessions, num_midnight_sessions, mdi_score)
VALUES (?, ?, 0, 0, 0, 0, 0, 1)`, string(database.DateOf(d)), d.Weekday().String())
		if err != nil {
			t.Fatalf("seed mdi_daily: %v", err)
		}
	}
	return db
}

func detection() ([]domain.ZScore, []domain.Anomaly) {
	zscores := []domain.ZScore{{Date: day1, Value: -0.7}, {Date: day2, Value: 2.4}}
	anomalies := []domain.Anomaly{{
		Date:       day2,
		MDIScore:   1,
		ZScore:     2.4,
		Severity:   domain.SeverityExtreme,
		Message:    domain.Message(1, 2.4),
		DetectedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	return zscores, anomalies
}

func counts(t *testing.T, db *sqlx.DB) (anomalies, withZ int) {
	t.Helper()
	if err := db.Get(&anomalies, `SELECT COUNT(*) FROM anomaly_log`); err != nil {
		t.Fatalf("count anomaly_log: %v", err)
	}
	var zs []sql.NullFloat64
	if err := db.Select(&zs, `SELECT z_score FROM mdi_daily`); err != nil {
		t.Fatalf("select z: %v", err)
	}
	for _, z := range zs {
		if z.Valid {
			withZ++
		}
	}
	return anomalies, withZ
}

func TestSaveRollsBackAnomaliesWhenZUpdateFails(t *testing.T) {
	t.Parallel()
	db := openDB(t)
	if _, err := db.Exec(`
CREATE TRIGGER refuse_z BEFORE UPDATE OF z_score ON mdi_daily
WHEN NEW.date_recorded = '2024-01-02'
BEGIN SELECT RAISE(ABORT, 'z update refused'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
	store := anomalyout.NewSQLAnomalyStore(db, 500)
	zscores, anomalies := detection()

	if err := store.Save(context.Background(), zscores, anomalies); err == nil {
		t.Fatalf("expected save to fail")
	}
	if logged, withZ := counts(t, db); logged != 0 || withZ != 0 {
		t.Fatalf("expected full rollback, got %d anomalies and %d z-scores", logged, withZ)
	}

	if _, err := db.Exec(`DROP TRIGGER refuse_z`); err != nil {
		t.Fatalf("drop trigger: %v", err)
	}
	if err := store.Save(context.Background(), zscores, anomalies); err != nil {
		t.Fatalf("save: %v", err)
	}
	if logged, withZ := counts(t, db); logged != 1 || withZ != 2 {
		t.Fatalf("expected 1 anomaly and 2 z-scores, got %d and %d", logged, withZ)
	}
	listed, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Severity != domain.SeverityExtreme || !listed[0].Date.Equal(day2) {
		t.Fatalf("unexpected listing %+v", listed)
	}
}
