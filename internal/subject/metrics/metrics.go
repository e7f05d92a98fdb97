package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the subject registry. A counter is
// recorded on every successful registration, status change, attribute
// update, and lookup, plus per-operation duration histograms.
type Metrics struct {
	Registered        *prometheus.CounterVec
	StatusChanged     *prometheus.CounterVec
	AttributesUpdated prometheus.Counter
	Lookups           prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all registry metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subject_registry_subjects_registered_total",
			Help: "Total number of subjects registered",
		}, []string{"subject_type"}),
		StatusChanged: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "subject_registry_status_changes_total",
			Help: "Total number of committed subject status transitions",
		}, []string{"old_status", "new_status"}),
		AttributesUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subject_registry_attribute_updates_total",
			Help: "Total number of committed subject attribute replacements",
		}),
		Lookups: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subject_registry_lookups_total",
			Help: "Total number of successful subject lookups",
		}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "subject_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered(subjectType string) {
	m.Registered.WithLabelValues(subjectType).Inc()
}

// IncrementStatusChanged records a committed status transition.
func (m *Metrics) IncrementStatusChanged(oldStatus, newStatus string) {
	m.StatusChanged.WithLabelValues(oldStatus, newStatus).Inc()
}

// IncrementAttributesUpdated records a committed attribute replacement.
func (m *Metrics) IncrementAttributesUpdated() {
	m.AttributesUpdated.Inc()
}

// IncrementLookups records a successful lookup.
func (m *Metrics) IncrementLookups() {
	m.Lookups.Inc()
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
