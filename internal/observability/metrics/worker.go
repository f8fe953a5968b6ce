package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	syncRunsTotal       *prometheus.CounterVec
	syncRunDuration     prometheus.Histogram
	syncCandidatesTotal *prometheus.CounterVec
	syncInFlight        prometheus.Gauge
	eventsHandledTotal  *prometheus.CounterVec
	eventLag            prometheus.Histogram
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	syncRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "sync_runs_total",
			Help:        "Drive sync passes by status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)
	syncRunDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "sync_run_duration_seconds",
			Help:        "Duration of a full drive sync pass.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			ConstLabels: constLabels,
		},
	)
	syncCandidatesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "sync_candidates_total",
			Help:        "Candidates visited by sync passes by result.",
			ConstLabels: constLabels,
		},
		[]string{"result"},
	)
	syncInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "sync_in_flight",
			Help:        "1 while a sync pass is running.",
			ConstLabels: constLabels,
		},
	)
	eventsHandledTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "events_handled_total",
			Help:        "Workflow events consumed by kind and status.",
			ConstLabels: constLabels,
		},
		[]string{"kind", "status"},
	)
	eventLag := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "worker",
			Name:        "event_lag_seconds",
			Help:        "Delay between event publication and handling.",
			Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(syncRunsTotal, syncRunDuration, syncCandidatesTotal, syncInFlight, eventsHandledTotal, eventLag)

	return &WorkerMetrics{
		registry:            registry,
		syncRunsTotal:       syncRunsTotal,
		syncRunDuration:     syncRunDuration,
		syncCandidatesTotal: syncCandidatesTotal,
		syncInFlight:        syncInFlight,
		eventsHandledTotal:  eventsHandledTotal,
		eventLag:            eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *WorkerMetrics) StartSync() {
	m.syncInFlight.Set(1)
}

func (m *WorkerMetrics) FinishSync(duration time.Duration, synced, failed, skipped int, err error) {
	m.syncInFlight.Set(0)

	status := "success"
	if err != nil {
		status = "error"
	}
	m.syncRunsTotal.WithLabelValues(status).Inc()
	m.syncRunDuration.Observe(duration.Seconds())
	m.syncCandidatesTotal.WithLabelValues("synced").Add(float64(synced))
	m.syncCandidatesTotal.WithLabelValues("failed").Add(float64(failed))
	m.syncCandidatesTotal.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *WorkerMetrics) ObserveEvent(kind string, lag time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsHandledTotal.WithLabelValues(kind, status).Inc()
	if lag >= 0 {
		m.eventLag.Observe(lag.Seconds())
	}
}
