package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	metricPrefix = "bms_report_"

	resultSuccess = "success"
	resultError   = "error"
	resultEmpty   = "empty"
)

// PendingCounter reports how many stored reports still await review.
type PendingCounter interface {
	CountPendingReview(ctx context.Context) (int64, error)
}

var (
	registerOnce sync.Once

	generateTotal   *prometheus.CounterVec
	generateLatency *prometheus.HistogramVec
	reviewTotal     *prometheus.CounterVec
	reviewLatency   *prometheus.HistogramVec
	exportTotal     *prometheus.CounterVec
	exportLatency   *prometheus.HistogramVec
	rowsRendered    prometheus.Counter
)

// Init registers report metrics and the store-backed gauge.
func Init(pending PendingCounter, logger *zap.Logger) {
	registerOnce.Do(func() {
		generateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_total",
				Help: "Total report generate operations by result",
			},
			[]string{"result"},
		)
		generateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generate_latency_seconds",
				Help:    "Report generate latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		reviewTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "review_total",
				Help: "Total report review operations by result",
			},
			[]string{"result"},
		)
		reviewLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "review_latency_seconds",
				Help:    "Report review latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report export operations by format and result",
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
		rowsRendered = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_rendered_total",
				Help: "Total alarm rows rendered into reports",
			},
		)

		prometheus.MustRegister(
			generateTotal,
			generateLatency,
			reviewTotal,
			reviewLatency,
			exportTotal,
			exportLatency,
			rowsRendered,
		)

		if pending != nil {
			registerStoreMetrics(pending, logger)
		}
	})
}

// ObserveGenerate records generate latency and result.
func ObserveGenerate(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if generateTotal != nil {
		generateTotal.WithLabelValues(result).Inc()
	}
	if generateLatency != nil {
		generateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveReview records review latency and result.
func ObserveReview(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if reviewTotal != nil {
		reviewTotal.WithLabelValues(result).Inc()
	}
	if reviewLatency != nil {
		reviewLatency.WithLabelValues(result).Observe(duration.Seconds())
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

// AddRowsRendered increments the rendered row counter.
func AddRowsRendered(count int) {
	if count <= 0 {
		return
	}
	if rowsRendered != nil {
		rowsRendered.Add(float64(count))
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultEmpty   = resultEmpty

	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)
