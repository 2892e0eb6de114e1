package router

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"github.com/samber/lo"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
)

// optional maps blank cells to NULL.
func optional(value string) *string {
	return lo.EmptyableToPtr(strings.TrimSpace(value))
}

// submittedAt falls back to the envelope time for payloads written before
// submitted_at existed.
func submittedAt(value time.Time, envelope types.Envelope) time.Time {
	if value.IsZero() {
		return envelope.OccurredAt.UTC()
	}
	return value.UTC()
}

// jsonColumn keeps the decoded event for the payload JSON column.
func jsonColumn(event any) (cbigquery.NullJSON, error) {
	if event == nil {
		return cbigquery.NullJSON{}, nil
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return cbigquery.NullJSON{}, fmt.Errorf("encode payload json: %w", err)
	}
	if string(raw) == "null" {
		return cbigquery.NullJSON{}, nil
	}
	return cbigquery.NullJSON{Valid: true, JSONVal: string(raw)}, nil
}
