package contracts

import (
	"strings"

	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/validation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Validation messages shown on the contracts desk.
const (
	MsgClientRequired    = "Please enter a client name."
	MsgContainerRequired = "Please select at least one container."
	MsgCargoValue        = "Cargo value must be greater than 0."
	MsgSurchargeRequired = "Please select at least one surcharge."
	MsgSalesPositive     = "Sales values must be greater than 0."
	MsgInvalidIncoterm   = "Select a valid incoterm."
)

const insuranceConcept = "Insurance"

var (
	insuranceRate   = decimal.RequireFromString("0.0013")
	insuranceFactor = decimal.RequireFromString("1.04")
)

// Incoterms offered on contract quotations.
var Incoterms = []enums.Incoterm{enums.IncotermCIF, enums.IncotermCFR, enums.IncotermFOB, enums.IncotermCPT, enums.IncotermDAP}

// AdditionalSurcharge is a free-form charge outside the contract table.
type AdditionalSurcharge struct {
	Concept string          `json:"concept"`
	Cost    decimal.Decimal `json:"cost"`
	Sale    decimal.Decimal `json:"sale"`
}

// QuoteRequest is a priced selection over one contract.
type QuoteRequest struct {
	POL        string                                `json:"pol"`
	POD        string                                `json:"pod"`
	Line       string                                `json:"line"`
	ContractID string                                `json:"contract_id"`
	Client     string                                `json:"client"`
	Incoterm   enums.Incoterm                        `json:"incoterm"`
	CargoTypes []string                              `json:"cargo_types"`
	Surcharges []string                              `json:"surcharges"`
	Sales      map[string]map[string]decimal.Decimal `json:"sales"`
	Additional []AdditionalSurcharge                 `json:"additional_surcharges"`
	CargoValue decimal.Decimal                       `json:"cargo_value"`
}

// Validate returns the desk's problems with req in display order.
func (req QuoteRequest) Validate() validation.Errors {
	var errs validation.Errors
	add := func(field, msg string) {
		errs = append(errs, validation.Error{Field: fields.Key(field), Message: msg})
	}
	if strings.TrimSpace(req.Client) == "" {
		add("client", MsgClientRequired)
	}
	if !lo.Contains(Incoterms, req.Incoterm) {
		add("incoterm", MsgInvalidIncoterm)
	}
	if len(req.CargoTypes) == 0 {
		add("cargo_types", MsgContainerRequired)
	}
	if req.Incoterm == enums.IncotermCIF && !req.CargoValue.IsPositive() {
		add("cargo_value", MsgCargoValue)
	}
	if len(req.Surcharges) == 0 {
		add("surcharges", MsgSurchargeRequired)
	}
	for _, s := range req.Surcharges {
		for _, container := range req.CargoTypes {
			if !req.Sales[s][container].IsPositive() {
				add("sales", MsgSalesPositive)
				return errs
			}
		}
	}
	return errs
}

// Insurance is the CIF insurance charge for cargoValue, rounded to cents.
func Insurance(cargoValue decimal.Decimal) decimal.Decimal {
	return cargoValue.Mul(insuranceRate).Mul(insuranceFactor).Round(2)
}

// QuoteLine is one priced surcharge for one container.
type QuoteLine struct {
	Concept   string          `json:"concept"`
	Container string          `json:"container"`
	Cost      decimal.Decimal `json:"cost"`
	Sale      decimal.Decimal `json:"sale"`
}

// Quote is a validated request priced against the contract.
type Quote struct {
	Request    QuoteRequest          `json:"request"`
	Contract   Contract              `json:"contract"`
	Lines      []QuoteLine           `json:"lines"`
	Additional []AdditionalSurcharge `json:"additional_surcharges"`
	TotalCost  decimal.Decimal       `json:"total_cost"`
	TotalSale  decimal.Decimal       `json:"total_sale"`
}

// Profit is total sale minus total cost.
func (q Quote) Profit() decimal.Decimal {
	return q.TotalSale.Sub(q.TotalCost)
}

// PriceQuote builds the quote. Surcharges follow the contract table order and
// containers follow the request order. CIF quotes carry the insurance charge.
func PriceQuote(req QuoteRequest, ct Contract) Quote {
	q := Quote{Request: req, Contract: ct}
	for _, name := range SelectableSurcharges {
		if !lo.Contains(req.Surcharges, name) {
			continue
		}
		for _, container := range req.CargoTypes {
			p, _ := ct.Cost(name, container)
			line := QuoteLine{Concept: name, Container: container, Cost: p.Cost(), Sale: req.Sales[name][container]}
			q.Lines = append(q.Lines, line)
			q.TotalCost = q.TotalCost.Add(line.Cost)
			q.TotalSale = q.TotalSale.Add(line.Sale)
		}
	}
	additional := lo.Filter(req.Additional, func(a AdditionalSurcharge, _ int) bool {
		return strings.TrimSpace(a.Concept) != ""
	})
	if req.Incoterm == enums.IncotermCIF {
		ins := Insurance(req.CargoValue)
		additional = append(additional, AdditionalSurcharge{Concept: insuranceConcept, Cost: ins, Sale: ins})
	}
	for _, a := range additional {
		q.TotalCost = q.TotalCost.Add(a.Cost)
		q.TotalSale = q.TotalSale.Add(a.Sale)
	}
	q.Additional = additional
	return q
}
