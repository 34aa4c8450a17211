package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const pendingQueryTimeout = 3 * time.Second

func registerStoreMetrics(pending PendingCounter, logger *zap.Logger) {
	prometheus.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "pending_review",
			Help: "Stored reports without review metadata",
		},
		func() float64 {
			return queryPending(pending, logger)
		},
	))
}

func queryPending(pending PendingCounter, logger *zap.Logger) float64 {
	if pending == nil {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.Background(), pendingQueryTimeout)
	defer cancel()
	count, err := pending.CountPendingReview(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.Error(err))
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
