// Package types holds the shapes shared by the analytics consumer, its
// BigQuery writer and the read side.
package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Envelope is one quotation event pulled off the analytics subscription.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	Version       int                       `json:"version"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}

// SchemaVersion is the payload version, or fallback for envelopes written
// before versions were stamped.
func (e Envelope) SchemaVersion(fallback int) int {
	if e.Version > 0 {
		return e.Version
	}
	return fallback
}

func (e Envelope) Empty() bool {
	return len(bytes.TrimSpace(e.Payload)) == 0 || bytes.Equal(bytes.TrimSpace(e.Payload), []byte("null"))
}
