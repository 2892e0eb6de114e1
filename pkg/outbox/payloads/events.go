package payloads

import "time"

// QuotationSubmittedEvent is emitted once a wizard quotation row is persisted.
type QuotationSubmittedEvent struct {
	RequestID       string    `json:"request_id"`
	SalesRep        string    `json:"sales_rep"`
	SalesRepEmail   string    `json:"sales_rep_email,omitempty"`
	Client          string    `json:"client"`
	ClientReference string    `json:"client_reference,omitempty"`
	Services        []string  `json:"services"`
	TransportTypes  []string  `json:"transport_types,omitempty"`
	Incoterms       []string  `json:"incoterms,omitempty"`
	ServiceCount    int       `json:"service_count"`
	DurationSeconds int       `json:"duration_seconds"`
	FolderLink      string    `json:"folder_link,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// ContractQuotationSubmittedEvent is emitted for a contracts desk quotation.
type ContractQuotationSubmittedEvent struct {
	RequestID   string    `json:"request_id"`
	SalesRep    string    `json:"sales_rep"`
	Client      string    `json:"client"`
	Incoterm    string    `json:"incoterm"`
	POL         string    `json:"pol"`
	POD         string    `json:"pod"`
	ContractID  string    `json:"contract_id"`
	TotalCost   string    `json:"total_cost"`
	TotalSale   string    `json:"total_sale"`
	TotalProfit string    `json:"total_profit"`
	SubmittedAt time.Time `json:"submitted_at"`
}
