// Package metrics records restore runs as Prometheus metrics.
//
// The tool runs from CI or cron rather than as a server, so metrics are
// exported as a node_exporter textfile instead of being scraped over HTTP.
package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "services"

// PrometheusRecorder implements the reconciler's Recorder with Prometheus metrics.
type PrometheusRecorder struct {
	registry    *prom.Registry
	declared    prom.Gauge
	onDisk      prom.Gauge
	restored    *prom.CounterVec
	runs        *prom.CounterVec
	runDuration prom.Histogram
	lastRun     prom.Gauge
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		declared: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "declared",
			Help:      "Services declared by the source artifact in the last run",
		}),
		onDisk: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "on_disk",
			Help:      "Definition files indexed on disk in the last run",
		}),
		restored: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "restored_total",
			Help:      "Definition files restored from the source artifact",
		}, []string{"service"}),
		runs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Restore runs by outcome",
		}, []string{"outcome"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of restore runs",
			Buckets:   prom.DefBuckets,
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}),
	}
	reg.MustRegister(pr.declared, pr.onDisk, pr.restored, pr.runs, pr.runDuration, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (pr *PrometheusRecorder) Registry() *prom.Registry {
	return pr.registry
}

// SetDeclared records the number of declared services.
func (pr *PrometheusRecorder) SetDeclared(n int) {
	pr.declared.Set(float64(n))
}

// SetOnDisk records the number of indexed definition files.
func (pr *PrometheusRecorder) SetOnDisk(n int) {
	pr.onDisk.Set(float64(n))
}

// IncRestored counts one restored definition.
func (pr *PrometheusRecorder) IncRestored(id string) {
	pr.restored.WithLabelValues(id).Inc()
}

// ObserveRun records a finished run.
func (pr *PrometheusRecorder) ObserveRun(outcome string, d time.Duration) {
	pr.runs.WithLabelValues(outcome).Inc()
	pr.runDuration.Observe(d.Seconds())
	pr.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the current metrics in the text exposition format,
// atomically replacing path.
func (pr *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, pr.registry)
}
