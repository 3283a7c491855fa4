// Package metrics provides Prometheus metrics for the rally rating service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every metric the service records.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Replay
	matchesApplied  prometheus.Counter
	replayDuration  prometheus.Histogram
	competitors     prometheus.Gauge
	ratingDeltaSize prometheus.Histogram

	// Ingestion
	ingestQueueSize   prometheus.Gauge
	ingestErrors      *prometheus.CounterVec
	ingestDuplicates  prometheus.Counter
	ingestPersistence prometheus.Counter

	// Prediction
	predictions       *prometheus.CounterVec
	unknownOutcomes   prometheus.Counter
	predictorLatency  prometheus.Histogram
	predictorFailures prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rally",
		subsystem:        "ratings",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	auto := promauto.With(m.registry)

	m.matchesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_applied_total",
		Help:      "Total number of matches folded into the rating store",
	})
	m.replayDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "replay_duration_seconds",
		Help:      "Duration of full history replays",
		Buckets:   m.histogramBuckets,
	})
	m.competitors = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "competitors",
		Help:      "Number of distinct competitors in the rating store",
	})
	m.ratingDeltaSize = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_delta_points",
		Help:      "Absolute rating change per competitor per match",
		Buckets:   []float64{1, 2, 4, 8, 12, 16, 20, 24},
	})

	m.ingestQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_queue_size",
		Help:      "Matches waiting to be applied by the ingest worker",
	})
	m.ingestErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_errors_total",
		Help:      "Rejected or failed match ingestions by reason",
	}, []string{"reason"})
	m.ingestDuplicates = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_duplicates_total",
		Help:      "Matches dropped because their id was already seen",
	})
	m.ingestPersistence = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ingest_persisted_total",
		Help:      "Matches written to the history store",
	})

	m.predictions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Predictions served by winner label",
	}, []string{"winner"})
	m.unknownOutcomes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "unknown_outcome_codes_total",
		Help:      "Predictor responses outside the recognized outcome codes",
	})
	m.predictorLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictor_latency_milliseconds",
		Help:      "Latency of predictor calls in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	m.predictorFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictor_failures_total",
		Help:      "Predictor calls that returned an error",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordMatchApplied counts one folded match and the rating changes it produced.
func RecordMatchApplied(deltaA, deltaB float64) {
	globalManager.matchesApplied.Inc()
	globalManager.ratingDeltaSize.Observe(abs(deltaA))
	globalManager.ratingDeltaSize.Observe(abs(deltaB))
}

// RecordReplayDuration records the wall time of a full replay.
func RecordReplayDuration(seconds float64) {
	globalManager.replayDuration.Observe(seconds)
}

// UpdateCompetitors sets the competitor gauge.
func UpdateCompetitors(count int) {
	globalManager.competitors.Set(float64(count))
}

// UpdateIngestQueueSize sets the ingest backlog gauge.
func UpdateIngestQueueSize(size int) {
	globalManager.ingestQueueSize.Set(float64(size))
}

// RecordIngestError counts a rejected or failed ingestion.
func RecordIngestError(reason string) {
	globalManager.ingestErrors.WithLabelValues(reason).Inc()
}

// RecordIngestDuplicate counts a match dropped by deduplication.
func RecordIngestDuplicate() {
	globalManager.ingestDuplicates.Inc()
}

// RecordMatchPersisted counts a match written to storage.
func RecordMatchPersisted() {
	globalManager.ingestPersistence.Inc()
}

// RecordPrediction counts a served prediction.
func RecordPrediction(winner string) {
	globalManager.predictions.WithLabelValues(winner).Inc()
}

// RecordUnknownOutcome counts a predictor code outside {1, 2}.
func RecordUnknownOutcome() {
	globalManager.unknownOutcomes.Inc()
}

// RecordPredictorLatency records one predictor round trip.
func RecordPredictorLatency(latencyMs float64) {
	globalManager.predictorLatency.Observe(latencyMs)
}

// RecordPredictorFailure counts a predictor error.
func RecordPredictorFailure() {
	globalManager.predictorFailures.Inc()
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the registry all metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
