package service

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle counters. A nil *Metrics records nothing.
type Metrics struct {
	Operations    *prometheus.CounterVec // studyvault_lifecycle_operations_total{operation,status}
	PendingFiles  prometheus.Counter     // studyvault_purge_pending_files_total
	BytesUploaded prometheus.Counter     // studyvault_blob_bytes_uploaded_total
}

// NewMetrics registers the counters on registry, or the default registerer when nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Operations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "studyvault_lifecycle_operations_total",
			Help: "Lifecycle and sharing operations by operation and outcome",
		}, []string{"operation", "status"}),

		PendingFiles: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "studyvault_purge_pending_files_total",
			Help: "Files left pending by partially failed subject purges",
		}),

		BytesUploaded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "studyvault_blob_bytes_uploaded_total",
			Help: "Bytes written to the object store",
		}),
	}
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(operation, statusOf(err)).Inc()
}

func (m *Metrics) uploaded(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesUploaded.Add(float64(n))
}

func (m *Metrics) pending(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PendingFiles.Add(float64(n))
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPartialFailure):
		return "partial"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
