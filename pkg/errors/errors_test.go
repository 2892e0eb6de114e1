package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataPolicy(t *testing.T) {
	cases := map[Code]struct {
		status  int
		retry   bool
		expose  bool
		details bool
	}{
		CodeValidation:         {http.StatusUnprocessableEntity, false, true, true},
		CodeNotFound:           {http.StatusNotFound, false, true, false},
		CodeRateLimit:          {http.StatusTooManyRequests, false, true, false},
		CodeInternal:           {http.StatusInternalServerError, true, false, false},
		CodeDependency:         {http.StatusServiceUnavailable, true, false, true},
		CodeConfiguration:      {http.StatusInternalServerError, false, false, false},
		CodeStateInconsistency: {http.StatusConflict, false, true, true},
	}
	for code, want := range cases {
		meta := MetadataFor(code)
		assert.Equal(t, want.status, meta.HTTPStatus, code)
		assert.Equal(t, want.retry, meta.Retryable, code)
		assert.Equal(t, want.expose, meta.ExposeMessage, code)
		assert.Equal(t, want.details, meta.DetailsAllowed, code)
		assert.NotEmpty(t, meta.PublicMessage, code)
	}
	assert.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_UNKNOWN"))
}

func TestErrorWrapping(t *testing.T) {
	cause := stdErrors.New("503 from sheets")
	err := Wrap(CodeDependency, cause, "append row").WithDetails(map[string]any{"step": "sheets"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "DEPENDENCY_ERROR: append row: 503 from sheets", err.Error())
	assert.Equal(t, map[string]any{"step": "sheets"}, err.Details())

	outer := fmt.Errorf("submit: %w", err)
	require.NotNil(t, As(outer))
	assert.Equal(t, CodeDependency, CodeOf(outer))
	assert.Equal(t, CodeInternal, CodeOf(stdErrors.New("plain")))
	assert.Nil(t, As(nil))

	assert.Equal(t, "VALIDATION_ERROR: row 3 is empty", Newf(CodeValidation, "row %d is empty", 3).Error())
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(stdErrors.New("socket closed")), "untyped errors are transient")
	assert.True(t, IsRetryable(Wrap(CodeDependency, stdErrors.New("503"), "append row")))
	assert.False(t, IsRetryable(New(CodeConfiguration, "parent folder missing")))
	assert.False(t, IsRetryable(New(CodeValidation, "bad")))
}

func TestLogFields(t *testing.T) {
	assert.Empty(t, LogFields(nil))

	plain := LogFields(New(CodeNotFound, "no such session"))
	assert.Equal(t, CodeNotFound, plain["error_code"])
	assert.NotContains(t, plain, "error_chain")

	pgx := LogFields(Wrap(CodeConflict, &pgconn.PgError{Code: "23505", ConstraintName: "sales_reps_email_key"}, "insert rep"))
	assert.Equal(t, "23505", pgx["pg_code"])
	assert.Equal(t, "sales_reps_email_key", pgx["pg_constraint"])
	assert.NotContains(t, pgx, "pg_table")
	assert.Len(t, pgx["error_chain"], 2)

	pqFields := LogFields(fmt.Errorf("insert: %w", &pq.Error{Code: "23503", Table: "outbox_dlq"}))
	assert.Equal(t, "23503", pqFields["pg_code"])
	assert.Equal(t, "outbox_dlq", pqFields["pg_table"])
}
