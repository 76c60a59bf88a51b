// Package metrics exposes per-run counters in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run holds the metrics of a single pipeline run on a private registry.
type Run struct {
	registry *prometheus.Registry

	collected     prometheus.Gauge
	left          prometheus.Gauge
	dropped       *prometheus.GaugeVec
	notifications *prometheus.CounterVec
	trackerRows   prometheus.Gauge
	lastRun       prometheus.Gauge
}

func New() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		collected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pfe_postings_collected",
			Help: "Raw postings collected from all sources in the last run",
		}),
		left: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pfe_postings_left",
			Help: "Postings left after all filtering steps in the last run",
		}),
		dropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pfe_filter_dropped",
			Help: "Postings dropped by each filtering step in the last run",
		}, []string{"step"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pfe_notifications_total",
			Help: "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		trackerRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pfe_tracker_rows",
			Help: "Rows in the tracker ledger after the last run",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pfe_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	r.registry.MustRegister(r.collected, r.left, r.dropped, r.notifications, r.trackerRows, r.lastRun)
	return r
}

func (r *Run) Collected(n int) { r.collected.Set(float64(n)) }

func (r *Run) Left(n int) { r.left.Set(float64(n)) }

func (r *Run) Dropped(step string, n int) { r.dropped.WithLabelValues(step).Set(float64(n)) }

// Notification implements notify.Recorder.
func (r *Run) Notification(channel, outcome string) {
	r.notifications.WithLabelValues(channel, outcome).Inc()
}

func (r *Run) TrackerRows(n int) { r.trackerRows.Set(float64(n)) }

func (r *Run) Registry() *prometheus.Registry { return r.registry }

// WriteTextfile stamps the run time and atomically writes all metrics to path.
func (r *Run) WriteTextfile(path string, finished time.Time) error {
	r.lastRun.Set(float64(finished.Unix()))

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
