package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/docauto/internal/core/domain"
)

type RunMetrics struct {
	registry *prometheus.Registry

	runTotal      *prometheus.CounterVec
	runDuration   prometheus.ObserverVec
	stageDuration prometheus.ObserverVec
	pagesTotal    prometheus.Counter
}

func NewRunMetrics(service string) *RunMetrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docauto",
			Subsystem: "run",
			Name:      "total",
			Help:      "Total runs by operation and status.",
		},
		[]string{"service", "operation", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docauto",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Run duration in seconds by operation and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docauto",
			Subsystem: "run",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each run state.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 300},
		},
		[]string{"service", "operation", "state"},
	)
	pagesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docauto",
			Subsystem: "assemble",
			Name:      "pages_total",
			Help:      "Number of normalized pages written into documents.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(runTotal, runDuration, stageDuration, pagesTotal)

	return &RunMetrics{
		registry:      registry,
		runTotal:      runTotal.MustCurryWith(prometheus.Labels{"service": service}),
		runDuration:   runDuration.MustCurryWith(prometheus.Labels{"service": service}),
		stageDuration: stageDuration.MustCurryWith(prometheus.Labels{"service": service}),
		pagesTotal:    pagesTotal,
	}
}

func (m *RunMetrics) ObserveStage(operation string, state domain.RunState, duration time.Duration) {
	m.stageDuration.WithLabelValues(operation, string(state)).Observe(duration.Seconds())
}

func (m *RunMetrics) FinishRun(operation string, duration time.Duration, err error) {
	status := Status(err)
	m.runTotal.WithLabelValues(operation, status).Inc()
	m.runDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func (m *RunMetrics) AddPages(n int) {
	if n <= 0 {
		return
	}
	m.pagesTotal.Add(float64(n))
}

// WriteTextfile dumps the registry in the node exporter textfile format.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Status maps an error onto a bounded label value.
func Status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case domain.IsKind(err, domain.ErrNotFound):
		return "not_found"
	case domain.IsKind(err, domain.ErrAlreadyExists):
		return "already_exists"
	case domain.IsKind(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrNotAZip):
		return "invalid_input"
	case domain.IsKind(err, domain.ErrCodecWrite):
		return "codec_write"
	case domain.IsKind(err, domain.ErrExternal):
		return "external"
	default:
		return "error"
	}
}
