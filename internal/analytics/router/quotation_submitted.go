package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	outboxpayloads "github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
	"github.com/samber/lo"
)

type quotationSubmittedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newQuotationSubmittedHandler(writer Writer, logg *logger.Logger) Handler {
	return &quotationSubmittedHandler{writer: writer, logg: logg}
}

func (h *quotationSubmittedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.QuotationSubmittedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventQuotationSubmitted)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":    envelope.EventType,
		"request_id":    event.RequestID,
		"service_count": event.ServiceCount,
	})

	row, err := buildQuotationRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build quotation row", err)
		return err
	}
	if err := h.writer.InsertQuotation(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert quotation row", err)
		return err
	}

	h.logg.Info(logCtx, "quotation row inserted")
	return nil
}

func buildQuotationRow(envelope types.Envelope, event *outboxpayloads.QuotationSubmittedEvent) (types.QuotationRow, error) {
	payloadJSON, err := jsonColumn(event)
	if err != nil {
		return types.QuotationRow{}, err
	}
	serviceCount := event.ServiceCount
	if serviceCount == 0 {
		serviceCount = len(event.Services)
	}
	return types.QuotationRow{
		EventID:         envelope.EventID,
		EventType:       string(envelope.EventType),
		OccurredAt:      envelope.OccurredAt,
		Kind:            string(enums.AggregateQuotation),
		RequestID:       event.RequestID,
		SalesRep:        event.SalesRep,
		SalesRepEmail:   optional(event.SalesRepEmail),
		Client:          event.Client,
		ClientReference: optional(event.ClientReference),
		Services:        event.Services,
		TransportTypes:  event.TransportTypes,
		Incoterms:       event.Incoterms,
		ServiceCount:    int64(serviceCount),
		DurationSeconds: lo.ToPtr(int64(event.DurationSeconds)),
		SubmittedAt:     submittedAt(event.SubmittedAt, envelope),
		Payload:         payloadJSON,
	}, nil
}
