package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "occupancy_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	scoringPassTotal   *prometheus.CounterVec
	scoringPassLatency *prometheus.HistogramVec
	scoredLocations    prometheus.Gauge
	unknownAggregator  prometheus.Counter

	ingestRequests *prometheus.CounterVec
	ingestErrors   *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	ingestSamples  prometheus.Counter

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec
)

// Init registers service metrics and, when db is set, DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		scoringPassTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "scoring_pass_total",
				Help: "Total scoring passes by result",
			},
			[]string{"result"},
		)
		scoringPassLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "scoring_pass_latency_seconds",
				Help:    "Scoring pass latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		scoredLocations = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "scored_locations",
				Help: "Locations scored by the last successful pass",
			},
		)
		unknownAggregator = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "unknown_aggregator_total",
				Help: "Scoring passes that fell back to the sum-of-counts aggregator",
			},
		)

		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total ingest requests by result",
			},
			[]string{"result"},
		)
		ingestErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_errors_total",
				Help: "Total ingest errors by reason",
			},
			[]string{"reason"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "Ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		ingestSamples = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_samples_total",
				Help: "Total status samples stored",
			},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			scoringPassTotal,
			scoringPassLatency,
			scoredLocations,
			unknownAggregator,
			ingestRequests,
			ingestErrors,
			ingestLatency,
			ingestSamples,
			exportTotal,
			exportLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveScoringPass records scoring pass duration and result.
func ObserveScoringPass(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if scoringPassTotal != nil {
		scoringPassTotal.WithLabelValues(result).Inc()
	}
	if scoringPassLatency != nil {
		scoringPassLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// SetScoredLocations records the location count of the last pass.
func SetScoredLocations(count int) {
	if scoredLocations != nil {
		scoredLocations.Set(float64(count))
	}
}

// IncUnknownAggregator counts a pass scored with the fallback aggregator.
func IncUnknownAggregator() {
	if unknownAggregator != nil {
		unknownAggregator.Inc()
	}
}

// ObserveIngest records ingest request duration and result.
func ObserveIngest(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncIngestError increments ingest error counter.
func IncIngestError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if ingestErrors != nil {
		ingestErrors.WithLabelValues(reason).Inc()
	}
}

// AddIngestSamples counts stored samples.
func AddIngestSamples(count int) {
	if count <= 0 {
		return
	}
	if ingestSamples != nil {
		ingestSamples.Add(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
