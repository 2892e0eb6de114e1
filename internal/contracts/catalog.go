// Package contracts quotes against negotiated shipping line contracts kept in the
// contracts catalog spreadsheet.
package contracts

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Catalog column names as they appear in the header row.
const (
	colStatus        = "Estado"
	colPOL           = "POL"
	colPOD           = "POD"
	colLine          = "Línea"
	colContract      = "No CONTRATO"
	colCommodities   = "COMMODITIES"
	colHSCodes       = "HS CODES"
	colShipper       = "SHIPPER"
	colDaysOrigin    = "DÍAS ORIGEN"
	colFDO           = "FDO"
	colDaysDest      = "DÍAS DESTINO APROBADOS"
	colFDD           = "FDD"
	colTransitTime   = "TT"
	colRoute         = "RUTA"
	colSuitableFood  = "APTO ALIMENTO"
	colNotes         = "NOTAS"
	colFreightEnd    = "FECHA FIN FLETE"
	colContainerType = "TIPO CONT"
)

const (
	dateLayout      = "02/01/2006"
	expiryWarnDays  = 15
	includedKeyword = "INCLUIDO"
)

var excludedStatuses = []string{"NO APROBADO", "EN PAUSA"}

// concept maps a catalog cost column to its display name.
type concept struct {
	column string
	name   string
}

var costConcepts = []concept{
	{"ORIGEN", "Origen"},
	{"FLETE", "Flete"},
	{"DESTINO", "Destino"},
	{"TOTAL FLETE Y ORIGEN", "Total flete y origen"},
	{"HBL", "Hbl"},
	{"Switch", "Switch"},
	{"TOTAL FLETE, ORIGEN Y DESTINO", "Total flete, origen y destino"},
	{"TOTAL FLETE, ORIGEN Y SWITCH O HBL", "Total flete, origen y switch o hbl"},
}

// Surcharges that can be sold in a contract quotation, in row order.
var SelectableSurcharges = []string{"Origen", "Flete", "Destino", "Hbl", "Switch"}

// Price is one catalog cost cell.
type Price struct {
	Raw      string          `json:"raw"`
	Amount   decimal.Decimal `json:"amount"`
	Included bool            `json:"included,omitempty"`
	Numeric  bool            `json:"numeric"`
}

// Cost is the amount charged to the desk. Included and unreadable cells cost nothing.
func (p Price) Cost() decimal.Decimal {
	if p.Included || !p.Numeric {
		return decimal.Zero
	}
	return p.Amount
}

// ParsePrice reads "$1.234,56" style amounts and the INCLUIDO keyword.
func ParsePrice(raw string) Price {
	raw = strings.TrimSpace(raw)
	p := Price{Raw: raw}
	if strings.EqualFold(raw, includedKeyword) {
		p.Included = true
		return p
	}
	normalized := strings.NewReplacer("$", "", ".", "", ",", ".", " ", "").Replace(raw)
	if amount, err := decimal.NewFromString(normalized); err == nil {
		p.Amount = amount
		p.Numeric = true
	}
	return p
}

// CostRow is one concept of a contract's cost table, keyed by container type.
type CostRow struct {
	Concept string           `json:"concept"`
	Prices  map[string]Price `json:"prices"`
}

// Contract is one (line, contract number) group valid for a POL/POD pair.
type Contract struct {
	Line                string    `json:"line"`
	ContractID          string    `json:"contract_id"`
	POL                 string    `json:"pol"`
	POD                 string    `json:"pod"`
	Commodities         string    `json:"commodities,omitempty"`
	HSCodes             string    `json:"hs_codes,omitempty"`
	Shipper             string    `json:"shipper,omitempty"`
	FreeDaysOrigin      string    `json:"free_days_origin,omitempty"`
	FreeDaysDestination string    `json:"free_days_destination,omitempty"`
	TransitTime         string    `json:"transit_time,omitempty"`
	Route               string    `json:"route,omitempty"`
	SuitableFood        bool      `json:"suitable_food"`
	Notes               string    `json:"notes,omitempty"`
	ExpiresOn           time.Time `json:"expires_on"`
	DaysLeft            int       `json:"days_left"`
	Warning             string    `json:"warning,omitempty"`
	CargoTypes          []string  `json:"cargo_types"`
	Costs               []CostRow `json:"costs"`
}

// Cost returns the catalog price of concept for a container type.
func (c Contract) Cost(conceptName, container string) (Price, bool) {
	for _, row := range c.Costs {
		if row.Concept == conceptName {
			p, ok := row.Prices[container]
			return p, ok
		}
	}
	return Price{}, false
}

// Surcharges lists the sellable concepts present in the cost table.
func (c Contract) Surcharges() []string {
	return lo.Filter(SelectableSurcharges, func(name string, _ int) bool {
		return lo.ContainsBy(c.Costs, func(r CostRow) bool { return r.Concept == name })
	})
}

// Filter narrows a catalog search. An empty commodity list matches every commodity.
type Filter struct {
	POL         string
	POD         string
	Commodities []string
}

type record map[string]string

func (r record) get(col string) string { return strings.TrimSpace(r[col]) }

// Catalog is the merged container and scrap tariff sheets.
type Catalog struct {
	records []record
}

// NewCatalog merges the sheets. Contracts not approved or paused are dropped from
// the containers sheet.
func NewCatalog(containers, scrap [][]string) *Catalog {
	c := &Catalog{}
	for _, r := range toRecords(containers) {
		status := strings.ToUpper(r.get(colStatus))
		if lo.Contains(excludedStatuses, status) {
			continue
		}
		c.records = append(c.records, r)
	}
	c.records = append(c.records, toRecords(scrap)...)
	return c
}

func toRecords(rows [][]string) []record {
	if len(rows) < 2 {
		return nil
	}
	header := rows[0]
	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		r := make(record, len(header))
		for i, col := range header {
			if i < len(row) {
				r[strings.TrimSpace(col)] = row[i]
			}
		}
		out = append(out, r)
	}
	return out
}

// Ports returns the distinct loading ports, sorted.
func (c *Catalog) Ports() []string {
	return distinct(c.records, colPOL, func(record) bool { return true })
}

// Destinations returns the discharge ports served from pol.
func (c *Catalog) Destinations(pol string) []string {
	return distinct(c.records, colPOD, func(r record) bool { return r.get(colPOL) == pol })
}

// Commodities returns the commodities quoted on the pol/pod lane.
func (c *Catalog) Commodities(pol, pod string) []string {
	return distinct(c.records, colCommodities, func(r record) bool {
		return r.get(colPOL) == pol && r.get(colPOD) == pod
	})
}

func distinct(records []record, col string, keep func(record) bool) []string {
	values := lo.FilterMap(records, func(r record, _ int) (string, bool) {
		v := r.get(col)
		return v, v != "" && keep(r)
	})
	values = lo.Uniq(values)
	sort.Strings(values)
	return values
}

// Search returns the contracts on the lane whose freight validity ends after now,
// grouped by line and contract number.
func (c *Catalog) Search(f Filter, now time.Time, loc *time.Location) []Contract {
	if loc == nil {
		loc = time.UTC
	}
	type key struct{ line, contract string }
	groups := make(map[key][]record)
	var order []key
	for _, r := range c.records {
		if r.get(colPOL) != f.POL || r.get(colPOD) != f.POD {
			continue
		}
		if len(f.Commodities) > 0 && !lo.Contains(f.Commodities, r.get(colCommodities)) {
			continue
		}
		end, ok := parseDate(r.get(colFreightEnd), loc)
		if !ok || !end.After(now) {
			continue
		}
		k := key{r.get(colLine), r.get(colContract)}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].line != order[j].line {
			return order[i].line < order[j].line
		}
		return order[i].contract < order[j].contract
	})

	out := make([]Contract, 0, len(order))
	for _, k := range order {
		out = append(out, buildContract(groups[k], now, loc))
	}
	return out
}

// Find returns the contract for line and number on the lane.
func (c *Catalog) Find(f Filter, line, contractID string, now time.Time, loc *time.Location) (Contract, bool) {
	return lo.Find(c.Search(Filter{POL: f.POL, POD: f.POD}, now, loc), func(ct Contract) bool {
		return ct.Line == line && ct.ContractID == contractID
	})
}

func buildContract(rows []record, now time.Time, loc *time.Location) Contract {
	first := rows[0]
	end, _ := parseDate(first.get(colFreightEnd), loc)
	ct := Contract{
		Line:                first.get(colLine),
		ContractID:          first.get(colContract),
		POL:                 first.get(colPOL),
		POD:                 first.get(colPOD),
		Commodities:         meaningful(first.get(colCommodities)),
		HSCodes:             meaningful(first.get(colHSCodes)),
		Shipper:             meaningful(first.get(colShipper)),
		FreeDaysOrigin:      meaningful(firstNonEmpty(first.get(colDaysOrigin), first.get(colFDO))),
		FreeDaysDestination: meaningful(firstNonEmpty(first.get(colDaysDest), first.get(colFDD))),
		TransitTime:         meaningful(first.get(colTransitTime)),
		Route:               meaningful(first.get(colRoute)),
		SuitableFood:        strings.EqualFold(first.get(colSuitableFood), "TRUE"),
		Notes:               capitalizeNotes(first.get(colNotes)),
		ExpiresOn:           end,
	}
	ct.DaysLeft = int(end.Sub(now).Hours() / 24)
	if ct.DaysLeft <= expiryWarnDays {
		ct.Warning = "This contract expires soon: " + end.Format("2006-01-02")
	}
	ct.Costs, ct.CargoTypes = pivot(rows)
	return ct
}

// pivot builds the concept by container cost table, keeping the first non-empty
// value per cell and dropping empty concepts.
func pivot(rows []record) ([]CostRow, []string) {
	containers := make(map[string]bool)
	var costs []CostRow
	for _, cc := range costConcepts {
		prices := make(map[string]Price)
		for _, r := range rows {
			container := r.get(colContainerType)
			raw := r.get(cc.column)
			if container == "" || raw == "" {
				continue
			}
			if _, ok := prices[container]; ok {
				continue
			}
			prices[container] = ParsePrice(raw)
		}
		if len(prices) == 0 {
			continue
		}
		for container := range prices {
			containers[container] = true
		}
		costs = append(costs, CostRow{Concept: cc.name, Prices: prices})
	}
	types := lo.Keys(containers)
	sort.Strings(types)
	return costs, types
}

func parseDate(raw string, loc *time.Location) (time.Time, bool) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func meaningful(v string) string {
	if v == "0" {
		return ""
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// capitalizeNotes lowers shouted lines, keeping the first letter upper case.
func capitalizeNotes(notes string) string {
	lines := strings.Split(notes, "\n")
	for i, line := range lines {
		if strings.ToUpper(line) == line && strings.ToLower(line) != line {
			lines[i] = capitalize(line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	for i, r := range runes {
		if !unicode.IsSpace(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}
