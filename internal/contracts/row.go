package contracts

import (
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/aggregate"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Headers of the contract quotations worksheet.
var Headers = []string{
	"Cotización ID", "Commercial", "Time", "Cliente", "Incoterm",
	"POL", "POD", "Commodity", "Contrato ID",
	"Cargo Types", "Cargo Value", "Surcharges (Costos)", "Surcharges (Ventas)",
	"Additional Surcharges (Costos)", "Additional Surcharges (Ventas)",
	"Total Cost", "Total Sale", "Total Profit",
}

// Money renders an amount as "$1234.50".
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// Row renders the quote as a worksheet row submitted at end, formatted in loc.
func Row(requestID, commercial string, q Quote, end time.Time, loc *time.Location) []string {
	if loc == nil {
		loc = time.UTC
	}
	costs := lo.Map(q.Lines, func(l QuoteLine, _ int) string { return l.Concept + " " + l.Container + ": " + Money(l.Cost) })
	sales := lo.Map(q.Lines, func(l QuoteLine, _ int) string { return l.Concept + " " + l.Container + ": " + Money(l.Sale) })
	addCosts := lo.Map(q.Additional, func(a AdditionalSurcharge, _ int) string { return a.Concept + ": " + Money(a.Cost) })
	addSales := lo.Map(q.Additional, func(a AdditionalSurcharge, _ int) string { return a.Concept + ": " + Money(a.Sale) })

	return []string{
		requestID,
		commercial,
		end.In(loc).Format(aggregate.TimeLayout),
		q.Request.Client,
		string(q.Request.Incoterm),
		q.Contract.POL,
		q.Contract.POD,
		q.Contract.Commodities,
		q.Contract.ContractID,
		strings.Join(q.Request.CargoTypes, "\n"),
		q.Request.CargoValue.StringFixed(2),
		strings.Join(costs, "\n"),
		strings.Join(sales, "\n"),
		strings.Join(addCosts, "\n"),
		strings.Join(addSales, "\n"),
		Money(q.TotalCost),
		Money(q.TotalSale),
		Money(q.Profit()),
	}
}

// RowMap keys the row by header.
func RowMap(row []string) map[string]string {
	out := make(map[string]string, len(Headers))
	for i, h := range Headers {
		if i < len(row) {
			out[h] = row[i]
		}
	}
	return out
}
