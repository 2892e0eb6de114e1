// Package writer streams analytics rows into BigQuery.
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/sethvargo/go-retry"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/freightquote-backend/pkg/bigquery"
	"github.com/angelmondragon/freightquote-backend/pkg/gcp"
)

type Config struct {
	QuotationsTable string
	Attempts        int
	MinBackoff      time.Duration
	MaxBackoff      time.Duration
}

type inserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter inserts one row per event. Transient BigQuery failures are
// retried in place; anything left over goes back to Pub/Sub as a nack.
type BigQueryWriter struct {
	bq      inserter
	table   string
	backoff func() retry.Backoff
}

func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table := strings.TrimSpace(cfg.QuotationsTable)
	if table == "" {
		return nil, errors.New("quotations table is required")
	}

	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	minWait := orDefault(cfg.MinBackoff, 250*time.Millisecond)
	maxWait := max(orDefault(cfg.MaxBackoff, 2*time.Second), minWait)

	return &BigQueryWriter{
		bq:    client,
		table: table,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(minWait)
			b = retry.WithCappedDuration(maxWait, b)
			return retry.WithMaxRetries(uint64(attempts-1), b)
		},
	}, nil
}

// InsertQuotation writes row. QuotationRow carries its event id as the
// insert id, so a retried or redelivered insert is not duplicated.
func (w *BigQueryWriter) InsertQuotation(ctx context.Context, row types.QuotationRow) error {
	err := retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		err := w.bq.InsertRows(ctx, w.table, []any{row})
		if transient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("inserting %s row %s: %w", w.table, row.EventID, err)
}

// transient reports whether every failure inside err is worth retrying.
// Row errors nest, so the BigQuery wrappers are unpacked first.
func transient(err error) bool {
	if err == nil {
		return false
	}

	var multi cbigquery.MultiError
	if errors.As(err, &multi) {
		return len(multi) > 0 && allTransient(multi)
	}
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		if len(put) == 0 {
			return false
		}
		for _, rowErr := range put {
			if !transient(rowErr.Errors) {
				return false
			}
		}
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return gcp.IsRetryableHTTPCode(apiErr.Code)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal, codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}

func allTransient(errs []error) bool {
	for _, e := range errs {
		if !transient(e) {
			return false
		}
	}
	return true
}

func orDefault(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
