package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doomscroll/internal/platform/metrics"
)

func TestRecorderCountsAndWritesTextfile(t *testing.T) {
	t.Parallel()
	r := metrics.New()
	r.RawRows(10)
	r.Dropped("invalid_date", 2)
	r.Dropped("duplicate", 0)
	r.SessionsInserted(8)
	r.Anomaly("moderate")
	r.ObserveStage("ingest", time.Now(), nil)
	r.ObserveStage("detect", time.Now(), errors.New("boom"))

	count, err := testutil.GatherAndCount(r.Registry(), "doomscroll_dropped_rows_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	path := filepath.Join(t.TempDir(), "textfile", "doomscroll.prom")
	require.NoError(t, r.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.Contains(text, "doomscroll_raw_rows_total 10"))
	assert.True(t, strings.Contains(text, `doomscroll_anomalies_total{severity="moderate"} 1`))
	assert.True(t, strings.Contains(text, `stage="detect",status="error"`))
}

func TestNilRecorderIsInert(t *testing.T) {
	t.Parallel()
	var r *metrics.Recorder
	r.RawRows(1)
	r.Anomaly("extreme")
	r.ObserveStage("score", time.Now(), nil)
	assert.NoError(t, r.WriteTextfile("ignored.prom"))
}
