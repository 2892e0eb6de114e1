package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// CurrentVersion is the payload version written for new events.
const CurrentVersion = 1

// DomainEvent is what the quotation flows hand to the outbox.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

var aggregateNamespace = uuid.MustParse("5f0c3f55-5c8e-4c61-9a59-6a3d7f1e2b10")

// AggregateID derives the aggregate uuid from a request id, so a retried
// submission maps onto the same outbox row.
func AggregateID(aggregate enums.OutboxAggregateType, key string) uuid.UUID {
	return uuid.NewSHA1(aggregateNamespace, []byte(string(aggregate)+":"+key))
}

// Emitter writes events into outbox_events inside the caller's transaction.
type Emitter struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewEmitter(repo *Repository, logg *logger.Logger) *Emitter {
	return &Emitter{repo: repo, logg: logg, now: time.Now}
}

// Emit queues event at most once per (event type, aggregate). It reports
// whether a new row was written.
func (e *Emitter) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	if !event.EventType.IsValid() || !event.AggregateType.IsValid() {
		return false, errors.New("unknown event or aggregate type")
	}
	envelope, err := e.envelope(event)
	if err != nil {
		return false, err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return false, err
	}

	queued, err := e.repo.Insert(ctx, tx, &models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	})
	if err != nil {
		return false, err
	}
	if e.logg != nil {
		logCtx := e.logg.WithFields(ctx, map[string]any{
			"event_id":     envelope.EventID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
			"queued":       queued,
		})
		e.logg.Debug(logCtx, "outbox event emitted")
	}
	return queued, nil
}

func (e *Emitter) envelope(event DomainEvent) (PayloadEnvelope, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return PayloadEnvelope{}, err
	}
	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = e.now()
	}
	version := event.Version
	if version <= 0 {
		version = CurrentVersion
	}
	return PayloadEnvelope{
		Version:    version,
		EventID:    uuid.NewString(),
		OccurredAt: occurred.UTC(),
		Actor:      event.Actor,
		Data:       data,
	}, nil
}
