package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// OutboxEvent is a quotation event queued for Pub/Sub in the same transaction
// as its audit row. Payload is an outbox.PayloadEnvelope.
type OutboxEvent struct {
	ID            uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;type:aggregate_type_enum;not null"`
	AggregateID   uuid.UUID                 `gorm:"column:aggregate_id;type:uuid;not null"`
	EventType     enums.OutboxEventType     `gorm:"column:event_type;type:event_type_enum;not null"`
	Payload       json.RawMessage           `gorm:"column:payload;type:jsonb;not null"`

	// Delivery bookkeeping. A row at the attempt budget with no PublishedAt
	// has been dead-lettered.
	AttemptCount int        `gorm:"column:attempt_count;not null;default:0"`
	LastError    *string    `gorm:"column:last_error"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e OutboxEvent) Published() bool { return e.PublishedAt != nil }

// DeadLetter snapshots the event for outbox_dlq, counting the attempt that
// just failed.
func (e OutboxEvent) DeadLetter(reason enums.DeadLetterReason, cause error, at time.Time) *OutboxDeadLetter {
	entry := &OutboxDeadLetter{
		EventID:       e.ID,
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID,
		Payload:       e.Payload,
		Reason:        reason,
		AttemptCount:  e.AttemptCount + 1,
		FailedAt:      at.UTC(),
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}
	return entry
}

// LogFields identifies the row in publisher logs.
func (e OutboxEvent) LogFields() map[string]any {
	return map[string]any{
		"outbox_id":      e.ID.String(),
		"event_type":     e.EventType,
		"aggregate_type": e.AggregateType,
		"aggregate_id":   e.AggregateID.String(),
		"attempt_count":  e.AttemptCount,
	}
}
