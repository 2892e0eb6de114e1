// Package requestid hands out quotation request ids (Q0001, Q0002, ...).
package requestid

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
)

const counterName = "request_id"

var idPattern = regexp.MustCompile(`^Q(\d+)$`)

type counterStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

// Generator issues ids from an atomic Redis counter seeded from the time log sheet.
type Generator struct {
	counter       counterStore
	sheets        sheets.Store
	spreadsheetID string
	worksheet     string
}

func NewGenerator(counter counterStore, store sheets.Store, spreadsheetID, worksheet string) *Generator {
	return &Generator{
		counter:       counter,
		sheets:        store,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
	}
}

// Next returns a fresh request id.
func (g *Generator) Next(ctx context.Context) (string, error) {
	key := g.counter.CounterKey(counterName)
	if err := g.seed(ctx, key); err != nil {
		return "", err
	}
	n, err := g.counter.Incr(ctx, key)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "incrementing request id counter")
	}
	return Format(n), nil
}

// seed initializes the counter to the largest id already logged. SETNX keeps
// a running counter untouched.
func (g *Generator) seed(ctx context.Context, key string) error {
	if _, err := g.counter.Get(ctx, key); err == nil {
		return nil
	}
	rows, err := g.sheets.ReadAll(ctx, g.spreadsheetID, g.worksheet)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConfiguration {
			// worksheet not created yet
			rows = nil
		} else {
			return err
		}
	}
	if _, err := g.counter.SetNX(ctx, key, MaxID(rows), 0); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seeding request id counter")
	}
	return nil
}

// MaxID returns the largest numeric suffix found in column A.
func MaxID(rows [][]string) int64 {
	var max int64
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if n, ok := Parse(row[0]); ok && n > max {
			max = n
		}
	}
	return max
}

// Parse extracts the number from an id such as "Q0042".
func Parse(id string) (int64, bool) {
	m := idPattern.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format renders n with the Q prefix and at least four digits.
func Format(n int64) string {
	return fmt.Sprintf("Q%04d", n)
}
