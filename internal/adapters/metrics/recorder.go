package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trebuchet-org/dvote/internal/domain"
)

// Recorder collects ledger metrics. It observes transactions and counts
// published events.
type Recorder struct {
	registry *prometheus.Registry
	path     string

	commits  prometheus.Counter
	reverts  *prometheus.CounterVec
	duration prometheus.Histogram
	version  prometheus.Gauge
	events   *prometheus.CounterVec
}

// NewRecorder creates a recorder on its own registry. When path is not empty,
// Flush writes the registry there in the text exposition format.
func NewRecorder(path string) *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		path:     path,
		commits: f.NewCounter(prometheus.CounterOpts{
			Name: "dvote_ledger_commits_total",
			Help: "Total number of committed ledger transactions",
		}),
		reverts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvote_ledger_reverts_total",
			Help: "Total number of reverted ledger transactions by rejection kind",
		}, []string{"kind"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dvote_ledger_tx_duration_seconds",
			Help:    "Time spent inside ledger transactions",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		version: f.NewGauge(prometheus.GaugeOpts{
			Name: "dvote_ledger_version",
			Help: "Last committed ledger version",
		}),
		events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dvote_events_published_total",
			Help: "Total number of published events by name",
		}, []string{"event"}),
	}
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) TxCommitted(version uint64, _ int, elapsed time.Duration) {
	r.commits.Inc()
	r.version.Set(float64(version))
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) TxReverted(err error, elapsed time.Duration) {
	r.reverts.WithLabelValues(domain.ErrorKind(err)).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) Publish(_ context.Context, events ...domain.Event) error {
	for _, e := range events {
		r.events.WithLabelValues(e.EventName()).Inc()
	}
	return nil
}

// Flush writes the metrics to the configured textfile, if any.
func (r *Recorder) Flush() error {
	if r.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
