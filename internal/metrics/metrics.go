// Package metrics is the Prometheus sink for the governance decision
// engine, adapted from the teacher's package of the same name. Collectors
// are plain promauto globals, as the teacher's are; Sink wraps them behind
// a buffered channel so a slow or blocked scrape never stalls Decide or
// Append.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decisionguard_decisions_total",
		Help: "Total number of decisions made, by verdict",
	}, []string{"verdict"})

	DecisionLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "decisionguard_decision_latency_seconds",
		Help:    "Time to evaluate and record one decision",
		Buckets: prometheus.DefBuckets,
	})

	LedgerAppendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decisionguard_ledger_append_total",
		Help: "Ledger append attempts, by tenant and result",
	}, []string{"tenant_id", "result"})

	LedgerVerifyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "decisionguard_ledger_verify_failures_total",
		Help: "Ledger verification failures, by reason",
	}, []string{"reason"})

	EscalationsQueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "decisionguard_escalations_queued_total",
		Help: "Number of Escalate verdicts queued for human review",
	})
)

// event is one fire-and-forget metrics update.
type event func()

// Sink dispatches metrics updates off the decision path through a buffered
// channel and a single drain goroutine, so a blocked or slow Prometheus
// client never adds latency to Decide or Append.
type Sink struct {
	events chan event
	done   chan struct{}
}

// NewSink starts a Sink with the given buffer depth. A depth of 0 selects
// a reasonable default.
func NewSink(buffer int) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		events: make(chan event, buffer),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Sink) drain() {
	defer close(s.done)
	for ev := range s.events {
		ev()
	}
}

func (s *Sink) dispatch(ev event) {
	if s == nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		// Buffer full: drop rather than block the caller. A dropped
		// sample is preferable to added decision latency.
	}
}

// RecordDecision records a completed decision's verdict and latency.
func (s *Sink) RecordDecision(verdict string, latencySeconds float64) {
	s.dispatch(func() {
		DecisionsTotal.WithLabelValues(verdict).Inc()
		DecisionLatencySeconds.Observe(latencySeconds)
	})
}

// RecordLedgerAppend records the outcome of one ledger append attempt.
func (s *Sink) RecordLedgerAppend(tenantID, result string) {
	s.dispatch(func() {
		LedgerAppendTotal.WithLabelValues(tenantID, result).Inc()
	})
}

// RecordLedgerVerifyFailure records one verification failure by reason.
func (s *Sink) RecordLedgerVerifyFailure(reason string) {
	s.dispatch(func() {
		LedgerVerifyFailuresTotal.WithLabelValues(reason).Inc()
	})
}

// RecordEscalationQueued records that an Escalate verdict was queued.
func (s *Sink) RecordEscalationQueued() {
	s.dispatch(func() { EscalationsQueued.Inc() })
}

// Close stops the drain goroutine once pending events have flushed.
func (s *Sink) Close() {
	close(s.events)
	<-s.done
}
