// Package metrics holds the Prometheus collectors for the assistant and the
// progress tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "academy"

// Write outcomes for progress updates.
const (
	OutcomePersisted = "persisted"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

type Metrics struct {
	ChatRepliesTotal       *prometheus.CounterVec
	ChatCancelledTotal     prometheus.Counter
	ProgressWritesTotal    *prometheus.CounterVec
	CompletionsTotal       *prometheus.CounterVec
	CourseCompletionsTotal prometheus.Counter
	PersistDurationSeconds *prometheus.HistogramVec
}

// New registers the collectors on reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		ChatRepliesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "chat",
			Name:      "replies_total",
			Help:      "Assistant replies by matched rule",
		}, []string{"rule"}),
		ChatCancelledTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "chat",
			Name:      "cancelled_total",
			Help:      "Replies abandoned because the caller went away during the typing delay",
		}),
		ProgressWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "progress",
			Name:      "writes_total",
			Help:      "Position updates by content kind and write outcome",
		}, []string{"kind", "outcome"}),
		CompletionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "progress",
			Name:      "completions_total",
			Help:      "First-time completions by content kind",
		}, []string{"kind"}),
		CourseCompletionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "progress",
			Name:      "course_completions_total",
			Help:      "Enrollments that reached 100%",
		}),
		PersistDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "store",
			Name:      "persist_duration_seconds",
			Help:      "Latency of storage calls made by the services",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

// NewNop returns collectors registered on a throwaway registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
