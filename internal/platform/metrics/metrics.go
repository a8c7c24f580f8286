package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	TransitionsCommitted  *prometheus.CounterVec
	TransitionsRejected   *prometheus.CounterVec
	TransitionConflicts   prometheus.Counter
	TransitionRetries     prometheus.Counter
	MonitoringLogsCreated prometheus.Counter
}

// New creates and registers all Prometheus metrics against the given
// registerer. Tests pass a fresh prometheus.NewRegistry to avoid duplicate
// registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodline_transitions_committed_total",
			Help: "Total number of committed status transitions",
		}, []string{"entity", "status"}),
		TransitionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodline_transition_rejected_total",
			Help: "Total number of rejected transition requests",
		}, []string{"reason"}),
		TransitionConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodline_transition_conflicts_total",
			Help: "Total number of optimistic version conflicts observed",
		}),
		TransitionRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodline_transition_retries_total",
			Help: "Total number of internal transition retries after a conflict",
		}),
		MonitoringLogsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bloodline_monitoring_logs_created_total",
			Help: "Total number of post-donation monitoring logs created",
		}),
	}
}

// ObserveCommit records a committed transition.
func (m *Metrics) ObserveCommit(entity, status string) {
	m.TransitionsCommitted.WithLabelValues(entity, status).Inc()
}

// ObserveRejection records a rejected transition by reason code.
func (m *Metrics) ObserveRejection(reason string) {
	m.TransitionsRejected.WithLabelValues(reason).Inc()
}
