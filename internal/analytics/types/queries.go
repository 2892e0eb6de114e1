package types

import "time"

// QuotationQueryRequest carries the input parameters for the quotation dashboard.
type QuotationQueryRequest struct {
	// SalesRep narrows every metric to one rep when set.
	SalesRep string
	Start    time.Time
	End      time.Time
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a service type or client.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// QuotationQueryResponse wraps the quotation KPIs.
type QuotationQueryResponse struct {
	QuotationsSeries   []TimeSeriesPoint `json:"quotations"`
	ContractsSeries    []TimeSeriesPoint `json:"contracts"`
	TopServices        []LabelValue      `json:"top_services"`
	TopClients         []LabelValue      `json:"top_clients"`
	TopSalesReps       []LabelValue      `json:"top_sales_reps"`
	AvgDurationSeconds float64           `json:"avg_duration_seconds"`
}
