// Package metrics records per-run pipeline counters. Batch runs flush them to
// a node-exporter textfile instead of serving a scrape endpoint.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder struct {
	registry *prometheus.Registry

	rawRows          prometheus.Counter
	droppedRows      *prometheus.CounterVec
	sessionsInserted prometheus.Counter
	daysScored       prometheus.Counter
	anomalies        *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	lastRun          *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		rawRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doomscroll_raw_rows_total",
			Help: "Raw usage records read from input files",
		}),
		droppedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doomscroll_dropped_rows_total",
			Help: "Raw records dropped during normalization",
		}, []string{"reason"}),
		sessionsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doomscroll_sessions_inserted_total",
			Help: "Canonical sessions appended to the store",
		}),
		daysScored: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "doomscroll_days_scored_total",
			Help: "Daily MDI rows appended to the store",
		}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "doomscroll_anomalies_total",
			Help: "Anomalous days detected",
		}, []string{"severity"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "doomscroll_stage_duration_seconds",
			Help:    "Wall time per pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage", "status"}),
		lastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "doomscroll_stage_last_run_timestamp_seconds",
			Help: "Unix time of the last completed stage run",
		}, []string{"stage"}),
	}
	r.registry.MustRegister(r.rawRows, r.droppedRows, r.sessionsInserted, r.daysScored, r.anomalies, r.stageDuration, r.lastRun)
	return r
}

// Registry exposes the underlying gatherer, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) RawRows(n int) {
	if r == nil {
		return
	}
	r.rawRows.Add(float64(n))
}

func (r *Recorder) Dropped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.droppedRows.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) SessionsInserted(n int) {
	if r == nil {
		return
	}
	r.sessionsInserted.Add(float64(n))
}

func (r *Recorder) DaysScored(n int) {
	if r == nil {
		return
	}
	r.daysScored.Add(float64(n))
}

func (r *Recorder) Anomaly(severity string) {
	if r == nil {
		return
	}
	r.anomalies.WithLabelValues(severity).Inc()
}

// ObserveStage records how long a stage took and whether it failed.
func (r *Recorder) ObserveStage(stage string, started time.Time, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.stageDuration.WithLabelValues(stage, status).Observe(time.Since(started).Seconds())
	if err == nil {
		r.lastRun.WithLabelValues(stage).SetToCurrentTime()
	}
}

// WriteTextfile atomically writes the registry in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
