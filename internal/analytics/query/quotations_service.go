package query

import (
	"context"
	"fmt"
	"strings"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/bigquery"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"google.golang.org/api/iterator"
)

const (
	timeSeriesByKindSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(submitted_at)) AS day,
  COUNT(DISTINCT request_id) AS value
FROM %s
WHERE %s
  AND kind = @kind
  AND submitted_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topServicesSQL = `
SELECT service AS label, COUNT(DISTINCT request_id) AS value
FROM %s, UNNEST(services) AS service
WHERE %s
  AND kind = 'quotation'
  AND submitted_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	topClientsSQL = `
SELECT client AS label, COUNT(DISTINCT request_id) AS value
FROM %s
WHERE %s
  AND client IS NOT NULL
  AND submitted_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	topSalesRepsSQL = `
SELECT sales_rep AS label, COUNT(DISTINCT request_id) AS value
FROM %s
WHERE %s
  AND submitted_at BETWEEN @start AND @end
GROUP BY label
ORDER BY value DESC
LIMIT 5
`

	avgDurationSQL = `
SELECT AVG(duration_seconds) AS value
FROM %s
WHERE %s
  AND kind = 'quotation'
  AND duration_seconds IS NOT NULL
  AND submitted_at BETWEEN @start AND @end
`
)

// QuotationService provides dashboard data from the BigQuery quotations table.
type QuotationService interface {
	Query(ctx context.Context, req types.QuotationQueryRequest) (*types.QuotationQueryResponse, error)
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (*cloudbigquery.RowIterator, error)
}

type quotationService struct {
	client   rowQuerier
	tableRef string
}

// NewQuotationService builds a service backed by BigQuery.
func NewQuotationService(client *bigquery.Client, project, dataset, table string) (QuotationService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &quotationService{
		client:   client,
		tableRef: tableRef(project, dataset, table),
	}, nil
}

func tableRef(project, dataset, table string) string {
	return fmt.Sprintf("`%s.%s.%s`", project, dataset, table)
}

func (s *quotationService) Query(ctx context.Context, req types.QuotationQueryRequest) (*types.QuotationQueryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	clause := repClause(req.SalesRep)
	params := baseParams(req)

	quotations, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesByKindSQL, s.tableRef, clause), withKind(params, "quotation"))
	if err != nil {
		return nil, err
	}
	contracts, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesByKindSQL, s.tableRef, clause), withKind(params, "contract_quotation"))
	if err != nil {
		return nil, err
	}
	topServices, err := s.queryTopLabels(ctx, fmt.Sprintf(topServicesSQL, s.tableRef, clause), params)
	if err != nil {
		return nil, err
	}
	topClients, err := s.queryTopLabels(ctx, fmt.Sprintf(topClientsSQL, s.tableRef, clause), params)
	if err != nil {
		return nil, err
	}
	topReps, err := s.queryTopLabels(ctx, fmt.Sprintf(topSalesRepsSQL, s.tableRef, clause), params)
	if err != nil {
		return nil, err
	}
	avg, err := s.queryAverage(ctx, fmt.Sprintf(avgDurationSQL, s.tableRef, clause), params)
	if err != nil {
		return nil, err
	}

	return &types.QuotationQueryResponse{
		QuotationsSeries:   quotations,
		ContractsSeries:    contracts,
		TopServices:        topServices,
		TopClients:         topClients,
		TopSalesReps:       topReps,
		AvgDurationSeconds: avg,
	}, nil
}

func validateRequest(req types.QuotationQueryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func repClause(salesRep string) string {
	if strings.TrimSpace(salesRep) == "" {
		return "TRUE"
	}
	return "sales_rep = @salesRep"
}

func baseParams(req types.QuotationQueryRequest) []cloudbigquery.QueryParameter {
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}
	if rep := strings.TrimSpace(req.SalesRep); rep != "" {
		params = append(params, cloudbigquery.QueryParameter{Name: "salesRep", Value: rep})
	}
	return params
}

func withKind(params []cloudbigquery.QueryParameter, kind string) []cloudbigquery.QueryParameter {
	out := make([]cloudbigquery.QueryParameter, 0, len(params)+1)
	out = append(out, params...)
	return append(out, cloudbigquery.QueryParameter{Name: "kind", Value: kind})
}

func (s *quotationService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *quotationService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *quotationService) queryAverage(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query average: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading average row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
