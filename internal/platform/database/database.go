// Package database opens the pipeline store and owns its schema. Both the
// embedded SQLite file and PostgreSQL are supported through sqlx.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"doomscroll/internal/platform/config"
)

// Open connects, verifies reachability and ensures the three pipeline tables.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := cfg.DataSource()
	if cfg.Driver == config.DriverSQLite && !isMemoryDSN(dsn) {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	switch cfg.Driver {
	case config.DriverSQLite:
		// One writer; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	default:
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}
	if err := EnsureSchema(ctx, db, cfg.Driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sqlx.DB, driver string) error {
	ddl := sqliteSchema
	if driver == config.DriverPostgres {
		ddl = postgresSchema
	}
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create pipeline tables: %w", err)
	}
	return nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  app_name TEXT NOT NULL,
  app_category TEXT NOT NULL,
  session_date TEXT NOT NULL,
  session_hour INTEGER NOT NULL CHECK (session_hour BETWEEN 0 AND 23),
  session_weekday TEXT NOT NULL,
  duration_minutes REAL NOT NULL CHECK (duration_minutes > 0 AND duration_minutes <= 1000),
  is_feed_app BOOLEAN NOT NULL,
  is_midnight BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(session_date);
CREATE TABLE IF NOT EXISTS mdi_daily (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  date_recorded TEXT NOT NULL,
  weekday TEXT NOT NULL,
  feed_time_minutes REAL NOT NULL,
  total_midnight_time_minutes REAL NOT NULL,
  avg_feed_session_minutes REAL NOT NULL,
  num_feed_midnight_sessions INTEGER NOT NULL,
  num_midnight_sessions INTEGER NOT NULL,
  mdi_score REAL NOT NULL,
  z_score REAL
);
CREATE INDEX IF NOT EXISTS idx_mdi_daily_date ON mdi_daily(date_recorded);
CREATE TABLE IF NOT EXISTS anomaly_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  date_of_anomaly TEXT NOT NULL,
  mdi_score REAL NOT NULL,
  z_score REAL NOT NULL,
  severity TEXT NOT NULL CHECK (severity IN ('mild', 'moderate', 'extreme')),
  message TEXT NOT NULL,
  detected_at TEXT NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sessions (
  id BIGSERIAL PRIMARY KEY,
  user_id BIGINT NOT NULL,
  app_name TEXT NOT NULL,
  app_category TEXT NOT NULL,
  session_date DATE NOT NULL,
  session_hour SMALLINT NOT NULL CHECK (session_hour BETWEEN 0 AND 23),
  session_weekday TEXT NOT NULL,
  duration_minutes DOUBLE PRECISION NOT NULL CHECK (duration_minutes > 0 AND duration_minutes <= 1000),
  is_feed_app BOOLEAN NOT NULL,
  is_midnight BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(session_date);
CREATE TABLE IF NOT EXISTS mdi_daily (
  id BIGSERIAL PRIMARY KEY,
  date_recorded DATE NOT NULL,
  weekday TEXT NOT NULL,
  feed_time_minutes DOUBLE PRECISION NOT NULL,
  total_midnight_time_minutes DOUBLE PRECISION NOT NULL,
  avg_feed_session_minutes DOUBLE PRECISION NOT NULL,
  num_feed_midnight_sessions INTEGER NOT NULL,
  num_midnight_sessions INTEGER NOT NULL,
  mdi_score DOUBLE PRECISION NOT NULL,
  z_score DOUBLE PRECISION
);
CREATE INDEX IF NOT EXISTS idx_mdi_daily_date ON mdi_daily(date_recorded);
CREATE TABLE IF NOT EXISTS anomaly_log (
  id BIGSERIAL PRIMARY KEY,
  date_of_anomaly DATE NOT NULL,
  mdi_score DOUBLE PRECISION NOT NULL,
  z_score DOUBLE PRECISION NOT NULL,
  severity TEXT NOT NULL CHECK (severity IN ('mild', 'moderate', 'extreme')),
  message TEXT NOT NULL,
  detected_at TIMESTAMPTZ NOT NULL
);
`
