package writer

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/freightquote-backend/pkg/bigquery"
)

type scriptedInserter struct {
	results []error
	tables  []string
	rows    [][]any
}

func (s *scriptedInserter) InsertRows(_ context.Context, table string, rows []any) error {
	s.tables = append(s.tables, table)
	s.rows = append(s.rows, rows)
	if n := len(s.tables) - 1; n < len(s.results) {
		return s.results[n]
	}
	return nil
}

func newTestWriter(t *testing.T, results ...error) (*BigQueryWriter, *scriptedInserter) {
	t.Helper()
	w, err := New(&pkgbigquery.Client{}, Config{
		QuotationsTable: "quotations",
		MinBackoff:      time.Millisecond,
		MaxBackoff:      2 * time.Millisecond,
	})
	require.NoError(t, err)
	fake := &scriptedInserter{results: results}
	w.bq = fake
	return w, fake
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, Config{QuotationsTable: "q"})
	assert.Error(t, err)
	_, err = New(&pkgbigquery.Client{}, Config{QuotationsTable: " "})
	assert.Error(t, err)
}

func TestInsertRetriesTransient(t *testing.T) {
	w, fake := newTestWriter(t, &googleapi.Error{Code: http.StatusServiceUnavailable}, nil)

	require.NoError(t, w.InsertQuotation(context.Background(), types.QuotationRow{EventID: "evt-1"}))
	assert.Equal(t, []string{"quotations", "quotations"}, fake.tables)
	row, ok := fake.rows[1][0].(types.QuotationRow)
	require.True(t, ok)
	assert.Equal(t, "evt-1", row.EventID)
}

func TestInsertStopsOnPermanent(t *testing.T) {
	w, fake := newTestWriter(t, &googleapi.Error{Code: http.StatusBadRequest})

	err := w.InsertQuotation(context.Background(), types.QuotationRow{EventID: "evt-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evt-1")
	assert.Len(t, fake.tables, 1)
}

func TestInsertGivesUp(t *testing.T) {
	down := status.Error(codes.Unavailable, "down")
	w, fake := newTestWriter(t, down, down, down, down)

	require.Error(t, w.InsertQuotation(context.Background(), types.QuotationRow{EventID: "evt-1"}))
	assert.Len(t, fake.tables, 3)
}

func TestTransient(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "down")
	invalid := &googleapi.Error{Code: http.StatusBadRequest}

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"http 503", &googleapi.Error{Code: http.StatusServiceUnavailable}, true},
		{"http 400", invalid, false},
		{"grpc unavailable", unavailable, true},
		{"grpc invalid", status.Error(codes.InvalidArgument, "bad"), false},
		{"multi all transient", cbigquery.MultiError{unavailable, unavailable}, true},
		{"multi mixed", cbigquery.MultiError{unavailable, invalid}, false},
		{"multi empty", cbigquery.MultiError{}, false},
		{"put rows transient", cbigquery.PutMultiError{{Errors: cbigquery.MultiError{unavailable}}}, true},
		{"put rows invalid", cbigquery.PutMultiError{{Errors: cbigquery.MultiError{invalid}}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, transient(tc.err))
		})
	}
}
