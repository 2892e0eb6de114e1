// Package router turns analytics envelopes into BigQuery rows, one handler
// per quotation event type.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox"
	"github.com/angelmondragon/freightquote-backend/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertQuotation(ctx context.Context, row types.QuotationRow) error
}

// Handler receives an envelope with its payload already decoded.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type Router struct {
	decoders *registry.Decoders
	handlers map[enums.OutboxEventType]Handler
}

// NewRouter registers the quotation handlers; overrides replace a default
// handler but cannot add event types the decoders do not know.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	r := &Router{
		decoders: registry.QuotationDecoders(),
		handlers: map[enums.OutboxEventType]Handler{
			enums.EventQuotationSubmitted:         newQuotationSubmittedHandler(writer, logg),
			enums.EventContractQuotationSubmitted: newContractQuotationHandler(writer, logg),
		},
	}
	for event, h := range overrides {
		if _, known := r.handlers[event]; known && h != nil {
			r.handlers[event] = h
		}
	}
	return r, nil
}

func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if envelope.Empty() {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload, err := r.decoders.Decode(envelope.EventType, envelope.SchemaVersion(outbox.CurrentVersion), envelope.Payload)
	if errors.Is(err, registry.ErrNoDecoder) {
		return fmt.Errorf("%w: %v", ErrUnsupportedEventType, err)
	}
	if err != nil {
		return err
	}
	return handler.Handle(ctx, envelope, payload)
}
