package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SubmissionMetrics tracks finalize steps of the quotation coordinator.
type SubmissionMetrics struct {
	steps    *prometheus.CounterVec
	attempts *prometheus.CounterVec
	finished *prometheus.CounterVec
}

// NewSubmissionMetrics registers the submission metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	steps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submission",
		Name:      "step_total",
		Help:      "Finalize steps by outcome.",
	}, []string{"step", "outcome"})
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submission",
		Name:      "step_attempts_total",
		Help:      "Calls made against external stores per finalize step, retries included.",
	}, []string{"step"})
	finished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "submission",
		Name:      "finalize_total",
		Help:      "Finalize invocations by result.",
	}, []string{"kind", "result"})
	reg.MustRegister(steps, attempts, finished)
	return &SubmissionMetrics{steps: steps, attempts: attempts, finished: finished}
}

// IncAttempt counts one call against an external store for step.
func (m *SubmissionMetrics) IncAttempt(step string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(step)).Inc()
}

// StepDone records a completed step.
func (m *SubmissionMetrics) StepDone(step string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.WithLabelValues(normalizeLabel(step), resultOK).Inc()
}

// StepFailed records a step that exhausted its attempts or failed permanently.
func (m *SubmissionMetrics) StepFailed(step string) {
	if m == nil || m.steps == nil {
		return
	}
	m.steps.WithLabelValues(normalizeLabel(step), resultError).Inc()
}

// Finished records the outcome of a finalize call for kind (quotation or contract).
func (m *SubmissionMetrics) Finished(kind string, err error) {
	if m == nil || m.finished == nil {
		return
	}
	m.finished.WithLabelValues(normalizeLabel(kind), resultOf(err)).Inc()
}
