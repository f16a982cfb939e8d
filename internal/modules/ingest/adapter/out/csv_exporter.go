package out

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"doomscroll/internal/modules/ingest/domain"
	ingestout "doomscroll/internal/modules/ingest/port/out"
	"doomscroll/internal/platform/database"
)

var exportHeader = []string{
	"user_id", "app_name", "app_category", "session_date", "session_hour",
	"session_weekday", "duration_minutes", "is_feed_app", "is_midnight",
}

// CSVExporter writes cleaned sessions with the same columns as the sessions
// table.
type CSVExporter struct{}

func NewCSVExporter() ingestout.SessionExporter {
	return CSVExporter{}
}

func (CSVExporter) Export(ctx context.Context, path string, sessions []domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		_ = f.Close()
		return fmt.Errorf("write export header: %w", err)
	}
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
		record := []string{
			strconv.FormatInt(s.UserID, 10),
			s.AppName,
			s.AppCategory,
			string(database.DateOf(s.SessionDate)),
			strconv.Itoa(s.SessionHour),
			s.SessionWeekday,
			strconv.FormatFloat(s.DurationMinutes, 'f', -1, 64),
			strconv.FormatBool(s.IsFeedApp),
			strconv.FormatBool(s.IsMidnight),
		}
		if err := w.Write(record); err != nil {
			_ = f.Close()
			return fmt.Errorf("write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("finalize export: %w", err)
	}
	return nil
}
