package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionMetricsCountsStepsAndAttempts(t *testing.T) {
	m := NewSubmissionMetrics(prometheus.NewRegistry())
	m.IncAttempt("row_persisted")
	m.IncAttempt("row_persisted")
	m.StepDone("row_persisted")
	m.StepFailed("files_uploaded")
	m.Finished("quotation", nil)
	m.Finished("quotation", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues("row_persisted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues("files_uploaded", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finished.WithLabelValues("quotation", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.finished.WithLabelValues("quotation", "ok")))
}

func TestSubmissionMetricsNilSafe(t *testing.T) {
	var m *SubmissionMetrics
	m.IncAttempt("x")
	m.StepDone("x")
	m.StepFailed("x")
	m.Finished("quotation", nil)

	NewSubmissionMetrics(nil).StepDone("x")
}
