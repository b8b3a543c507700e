package reader

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/columnar"
	"github.com/JorgeGarciaIrazabal/avro-to-arrow/pkg/rowsource"
)

// Failure reasons reported by the failures counter.
const (
	reasonTypeMismatch = "type_mismatch"
	reasonSource       = "source"
	reasonCanceled     = "canceled"
	reasonInternal     = "internal"
)

// Metrics instruments readers. One Metrics value may be shared by many
// readers; a nil *Metrics disables instrumentation.
type Metrics struct {
	rowsTotal     prometheus.Counter
	batchesTotal  prometheus.Counter
	failuresTotal *prometheus.CounterVec
	batchRows     prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		rowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avro_to_arrow_reader_rows_total",
			Help: "Total number of rows converted into Arrow batches.",
		}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "avro_to_arrow_reader_batches_total",
			Help: "Total number of Arrow batches emitted.",
		}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "avro_to_arrow_reader_failures_total",
			Help: "Total number of readers that stopped with an error, by reason.",
		}, []string{"reason"}),
		batchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "avro_to_arrow_reader_batch_rows",
			Help:    "Number of rows per emitted Arrow batch.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rowsTotal,
		m.batchesTotal,
		m.failuresTotal,
		m.batchRows,
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, collector := range m.collectors() {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

func (m *Metrics) Unregister(reg prometheus.Registerer) {
	for _, collector := range m.collectors() {
		reg.Unregister(collector)
	}
}

func (m *Metrics) observeBatch(rows int) {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
	m.rowsTotal.Add(float64(rows))
	m.batchRows.Observe(float64(rows))
}

func (m *Metrics) observeFailure(err error) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	var sourceErr *rowsource.SourceError
	switch {
	case errors.Is(err, columnar.ErrTypeMismatch):
		return reasonTypeMismatch
	case errors.As(err, &sourceErr):
		return reasonSource
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reasonCanceled
	}
	return reasonInternal
}
