package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	outboxpayloads "github.com/angelmondragon/freightquote-backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
)

type contractQuotationHandler struct {
	writer Writer
	logg   *logger.Logger
}

func newContractQuotationHandler(writer Writer, logg *logger.Logger) Handler {
	return &contractQuotationHandler{writer: writer, logg: logg}
}

func (h *contractQuotationHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*outboxpayloads.ContractQuotationSubmittedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventContractQuotationSubmitted)
	}

	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type":  envelope.EventType,
		"request_id":  event.RequestID,
		"contract_id": event.ContractID,
	})

	row, err := buildContractRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build contract quotation row", err)
		return err
	}
	if err := h.writer.InsertQuotation(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert contract quotation row", err)
		return err
	}

	h.logg.Info(logCtx, "contract quotation row inserted")
	return nil
}

func buildContractRow(envelope types.Envelope, event *outboxpayloads.ContractQuotationSubmittedEvent) (types.QuotationRow, error) {
	payloadJSON, err := jsonColumn(event)
	if err != nil {
		return types.QuotationRow{}, err
	}
	cost, err := decimalPtr(event.TotalCost)
	if err != nil {
		return types.QuotationRow{}, fmt.Errorf("total_cost: %w", err)
	}
	sale, err := decimalPtr(event.TotalSale)
	if err != nil {
		return types.QuotationRow{}, fmt.Errorf("total_sale: %w", err)
	}
	profit, err := decimalPtr(event.TotalProfit)
	if err != nil {
		return types.QuotationRow{}, fmt.Errorf("total_profit: %w", err)
	}

	var incoterms []string
	if event.Incoterm != "" {
		incoterms = []string{event.Incoterm}
	}
	return types.QuotationRow{
		EventID:        envelope.EventID,
		EventType:      string(envelope.EventType),
		OccurredAt:     envelope.OccurredAt,
		Kind:           string(enums.AggregateContractQuotation),
		RequestID:      event.RequestID,
		SalesRep:       event.SalesRep,
		Client:         event.Client,
		Services:       []string{"Contracts"},
		TransportTypes: []string{},
		Incoterms:      incoterms,
		ServiceCount:   1,
		POL:            optional(event.POL),
		POD:            optional(event.POD),
		ContractID:     optional(event.ContractID),
		TotalCost:      cost,
		TotalSale:      sale,
		TotalProfit:    profit,
		SubmittedAt:    submittedAt(event.SubmittedAt, envelope),
		Payload:        payloadJSON,
	}, nil
}

func decimalPtr(value string) (*float64, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	f := d.InexactFloat64()
	return &f, nil
}
