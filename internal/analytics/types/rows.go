package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// QuotationRow mirrors the quotations BigQuery schema. Wizard and contracts
// desk quotations share the table; Kind tells them apart.
type QuotationRow struct {
	EventID         string             `bigquery:"event_id"`
	EventType       string             `bigquery:"event_type"`
	OccurredAt      time.Time          `bigquery:"occurred_at"`
	Kind            string             `bigquery:"kind"`
	RequestID       string             `bigquery:"request_id"`
	SalesRep        string             `bigquery:"sales_rep"`
	SalesRepEmail   *string            `bigquery:"sales_rep_email"`
	Client          string             `bigquery:"client"`
	ClientReference *string            `bigquery:"client_reference"`
	Services        []string           `bigquery:"services"`
	TransportTypes  []string           `bigquery:"transport_types"`
	Incoterms       []string           `bigquery:"incoterms"`
	ServiceCount    int64              `bigquery:"service_count"`
	DurationSeconds *int64             `bigquery:"duration_seconds"`
	POL             *string            `bigquery:"pol"`
	POD             *string            `bigquery:"pod"`
	ContractID      *string            `bigquery:"contract_id"`
	TotalCost       *float64           `bigquery:"total_cost"`
	TotalSale       *float64           `bigquery:"total_sale"`
	TotalProfit     *float64           `bigquery:"total_profit"`
	SubmittedAt     time.Time          `bigquery:"submitted_at"`
	Payload         cbigquery.NullJSON `bigquery:"payload"`
}

// Save implements bigquery.ValueSaver. The event id doubles as the insert
// id so a redelivered event is dropped by the streaming buffer.
func (r QuotationRow) Save() (map[string]cbigquery.Value, string, error) {
	row := map[string]cbigquery.Value{
		"event_id":         r.EventID,
		"event_type":       r.EventType,
		"occurred_at":      r.OccurredAt,
		"kind":             r.Kind,
		"request_id":       r.RequestID,
		"sales_rep":        r.SalesRep,
		"sales_rep_email":  nullable(r.SalesRepEmail),
		"client":           r.Client,
		"client_reference": nullable(r.ClientReference),
		"services":         repeated(r.Services),
		"transport_types":  repeated(r.TransportTypes),
		"incoterms":        repeated(r.Incoterms),
		"service_count":    r.ServiceCount,
		"duration_seconds": nullable(r.DurationSeconds),
		"pol":              nullable(r.POL),
		"pod":              nullable(r.POD),
		"contract_id":      nullable(r.ContractID),
		"total_cost":       nullable(r.TotalCost),
		"total_sale":       nullable(r.TotalSale),
		"total_profit":     nullable(r.TotalProfit),
		"submitted_at":     r.SubmittedAt,
		"payload":          nil,
	}
	if r.Payload.Valid {
		row["payload"] = r.Payload.JSONVal
	}
	return row, r.EventID, nil
}

func nullable[T any](v *T) cbigquery.Value {
	if v == nil {
		return nil
	}
	return *v
}

// repeated keeps REPEATED columns from receiving NULL.
func repeated(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
