package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunThenReport(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw.csv")
	content := "user_id,app_name,date,duration_minutes\n" +
		"1,TikTok,2024-01-02 02:00,30\n" +
		"1,Kindle,2024-01-03 14:00,15\n"
	if err := os.WriteFile(raw, []byte(content), 0o644); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	db := filepath.Join(dir, "mdi.db")

	out, err := execute(t, "--db-dsn", db, "--log-level", "error", "run", raw)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	for _, want := range []string{"inserted=2", "scored 2 days from 2 sessions", "z-scores stored for 2 days"} {
		if !strings.Contains(out, want) {
			t.Fatalf("run output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "--db-dsn", db, "--log-level", "error", "report")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.Contains(out, "2024-01-02") || !strings.Contains(out, "no anomalies logged") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestMissingInputFailsWithoutPanicking(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "--db-dsn", filepath.Join(dir, "mdi.db"), "--log-level", "error", "ingest", filepath.Join(dir, "absent.csv"))
	if err == nil {
		t.Fatalf("expected error for missing input")
	}
}

func TestConfigShowAppliesFlagOverrides(t *testing.T) {
	out, err := execute(t, "--db-dsn", "custom.db", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "dsn: custom.db") || !strings.Contains(out, "zscore_threshold: 1.5") {
		t.Fatalf("unexpected config:\n%s", out)
	}
}

func TestInvalidOverrideRejected(t *testing.T) {
	if _, err := execute(t, "--db-driver", "oracle", "config", "show"); err == nil {
		t.Fatalf("expected invalid driver error")
	}
}
