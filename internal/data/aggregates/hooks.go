package aggregates

import (
	"time"

	"github.com/openacademy/trilhas-backend/internal/domain/enrollment"
	"github.com/openacademy/trilhas-backend/internal/observability"
)

// Hooks receives the outcome of aggregate writes. Implementations must be
// safe for concurrent use.
type Hooks interface {
	ObserveOperation(op, status string, dur time.Duration)
	IncConflict(op string)
	IncRetry(op string)
	// IncTransition fires once per committed inscription status change.
	IncTransition(from, to enrollment.Status)
}

// metricsHooks forwards to Prometheus. A nil Metrics drops every signal.
type metricsHooks struct {
	m *observability.Metrics
}

func NewObservabilityHooks(metrics *observability.Metrics) Hooks {
	return metricsHooks{m: metrics}
}

func (h metricsHooks) ObserveOperation(op, status string, dur time.Duration) {
	h.m.ObserveAggregateOperation(op, status, dur)
}

func (h metricsHooks) IncConflict(op string) { h.m.IncAggregateConflict(op) }
func (h metricsHooks) IncRetry(op string)    { h.m.IncAggregateRetry(op) }

func (h metricsHooks) IncTransition(from, to enrollment.Status) {
	h.m.IncTransition(string(from), string(to))
}
