// Package worker feeds quotation events from the analytics subscription into
// the router, at most once per event id.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/router"
	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
)

const consumerName = "quotation-analytics"

type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type deduper interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type Service struct {
	subscription receiver
	handler      Handler
	dedupe       deduper
	logg         *logger.Logger
}

func NewService(subscription receiver, handler Handler, dedupe deduper, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case dedupe == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{subscription: subscription, handler: handler, dedupe: dedupe, logg: logg}, nil
}

// Run blocks until ctx is canceled or the subscription fails.
func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if s.process(msgCtx, msg) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// process reports whether the message should be redelivered. Malformed and
// unsupported messages are acked; redelivery would not fix them.
func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) (redeliver bool) {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	env, err := decodeMessage(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping malformed analytics message")
		return false
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":       env.EventID,
		"event_type":     env.EventType,
		"aggregate_type": env.AggregateType,
		"aggregate_id":   env.AggregateID,
		"schema_version": env.Version,
	})

	eventID, err := uuid.Parse(env.EventID)
	if err != nil {
		s.logg.Warn(ctx, "dropping analytics message with non-uuid event id")
		return false
	}

	fresh, err := s.dedupe.Claim(ctx, consumerName, eventID)
	if err != nil {
		s.logg.Error(ctx, "idempotency check failed", err)
		return true
	}
	if !fresh {
		s.logg.Debug(ctx, "analytics event already handled")
		return false
	}

	err = s.handler.Handle(ctx, *env)
	switch {
	case err == nil:
		s.logg.Info(ctx, "analytics event handled")
		return false
	case errors.Is(err, router.ErrUnsupportedEventType):
		s.logg.Warn(ctx, "analytics event type not handled")
		return false
	default:
		s.logg.Error(ctx, "analytics handler failed", err)
		if delErr := s.dedupe.Release(ctx, consumerName, eventID); delErr != nil {
			s.logg.Error(ctx, "failed to clear idempotency key", delErr)
		}
		return true
	}
}

// decodeMessage builds an Envelope from the stored outbox envelope in the body
// and the routing attributes set by the outbox publisher.
func decodeMessage(msg *gcppubsub.Message) (*types.Envelope, error) {
	stored, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	if err != nil {
		return nil, err
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return nil, err
	}
	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		return nil, errors.New("aggregate_id attribute missing")
	}

	eventID := strings.TrimSpace(stored.EventID)
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		return nil, errors.New("event id missing")
	}

	version := stored.Version
	if v, err := strconv.Atoi(attr("schema_version")); err == nil && v > 0 {
		version = v
	}

	occurred := stored.OccurredAt
	if occurred.IsZero() {
		for _, key := range []string{"occurred_at", "created_at"} {
			if t, err := time.Parse(time.RFC3339Nano, attr(key)); err == nil {
				occurred = t
				break
			}
		}
	}

	return &types.Envelope{
		EventID:       eventID,
		Version:       version,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		OccurredAt:    occurred.UTC(),
		Payload:       stored.Data,
	}, nil
}
