package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
)

// Route sends one event type, raised on one aggregate type, to a topic.
type Route struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
}

// Resolved is an outbox row checked against its route and decoded.
type Resolved struct {
	Route    Route
	Envelope outbox.PayloadEnvelope
	Payload  any
}

// PermanentError marks a row that will never publish; retrying is pointless.
type PermanentError struct {
	Reason enums.DeadLetterReason
	Err    error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err with a dead-letter reason.
func Permanent(reason enums.DeadLetterReason, err error) error {
	return &PermanentError{Reason: reason, Err: err}
}

// AsPermanent unwraps a PermanentError from err.
func AsPermanent(err error) (*PermanentError, bool) {
	var perm *PermanentError
	if errors.As(err, &perm) {
		return perm, true
	}
	return nil, false
}

// Routes resolves outbox rows to their topic and typed payload.
type Routes struct {
	byEvent  map[enums.OutboxEventType]Route
	decoders *Decoders
}

// NewRoutes sends both quotation events to the quotation topic.
func NewRoutes(cfg config.PubSubConfig, decoders *Decoders) (*Routes, error) {
	topic := strings.TrimSpace(cfg.QuotationTopic)
	if topic == "" {
		return nil, errors.New("quotation topic is required")
	}
	if decoders == nil {
		decoders = QuotationDecoders()
	}
	r := &Routes{byEvent: map[enums.OutboxEventType]Route{}, decoders: decoders}
	r.add(Route{EventType: enums.EventQuotationSubmitted, AggregateType: enums.AggregateQuotation, Topic: topic})
	r.add(Route{EventType: enums.EventContractQuotationSubmitted, AggregateType: enums.AggregateContractQuotation, Topic: topic})
	return r, nil
}

func (r *Routes) add(route Route) {
	if !r.decoders.Supports(route.EventType) {
		return
	}
	r.byEvent[route.EventType] = route
}

func (r *Routes) Resolve(event models.OutboxEvent) (*Resolved, error) {
	route, ok := r.byEvent[event.EventType]
	if !ok {
		return nil, Permanent(enums.DeadLetterUnroutable, fmt.Errorf("no route for %s", event.EventType))
	}
	if route.AggregateType != event.AggregateType {
		return nil, Permanent(enums.DeadLetterUndecodable,
			fmt.Errorf("%s raised on %s, want %s", event.EventType, event.AggregateType, route.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, Permanent(enums.DeadLetterUndecodable, errors.New("aggregate_id is empty"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, Permanent(enums.DeadLetterUndecodable, fmt.Errorf("envelope: %w", err))
	}
	payload, err := r.decoders.Decode(event.EventType, envelope.Version, envelope.Data)
	if err != nil {
		return nil, Permanent(enums.DeadLetterUndecodable, err)
	}
	return &Resolved{Route: route, Envelope: envelope, Payload: payload}, nil
}
