// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Stream terminal outcomes used as metric label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Collector aggregates the module's prometheus metrics.
type Collector struct {
	streamsStarted prometheus.Counter
	streamsEnded   *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec

	chunksIngested prometheus.Counter
	bytesIngested  prometheus.Counter
	unitsEmitted   prometheus.Counter
	tokensCounted  prometheus.Counter

	flushesTotal prometheus.Counter
	flushSize    prometheus.Histogram

	logger *zap.Logger
}

// NewCollector creates a collector registering its metrics under the
// given namespace with the default prometheus registerer.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.streamsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "streams_started_total",
		Help:      "Total number of streams started",
	})

	c.streamsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_ended_total",
			Help:      "Total number of streams reaching a terminal state",
		},
		[]string{"outcome"},
	)

	c.streamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Stream lifetime from start to terminal state",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	c.chunksIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_ingested_total",
		Help:      "Total number of transport chunks ingested",
	})

	c.bytesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_ingested_total",
		Help:      "Total bytes of transport chunks ingested",
	})

	c.unitsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "units_emitted_total",
		Help:      "Total number of finalized units emitted",
	})

	c.tokensCounted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_counted_total",
		Help:      "Total model tokens counted across emitted units",
	})

	c.flushesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emitter_flushes_total",
		Help:      "Total number of throttled emitter flushes",
	})

	c.flushSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "emitter_flush_size_bytes",
		Help:      "Size of each throttled emitter flush in bytes",
		Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
	})

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordStreamStart records one stream start.
func (c *Collector) RecordStreamStart() {
	c.streamsStarted.Inc()
}

// RecordStreamEnd records one stream terminal state with its lifetime.
func (c *Collector) RecordStreamEnd(outcome string, duration time.Duration) {
	c.streamsEnded.WithLabelValues(outcome).Inc()
	c.streamDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordChunk records one ingested transport chunk of the given size.
func (c *Collector) RecordChunk(bytes int) {
	c.chunksIngested.Inc()
	c.bytesIngested.Add(float64(bytes))
}

// RecordUnits records n finalized units.
func (c *Collector) RecordUnits(n int) {
	c.unitsEmitted.Add(float64(n))
}

// RecordTokens records n counted model tokens.
func (c *Collector) RecordTokens(n int) {
	c.tokensCounted.Add(float64(n))
}

// RecordFlush records one emitter flush of the given size.
func (c *Collector) RecordFlush(bytes int) {
	c.flushesTotal.Inc()
	c.flushSize.Observe(float64(bytes))
}
