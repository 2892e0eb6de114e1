// Package quotations lists submitted quotations from the datastore worksheets.
package quotations

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/aggregate"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/sheets"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	transportMaritime = "Maritime"
	dateLayout        = "2006-01-02"
)

var (
	portPattern   = regexp.MustCompile(`\((.*?)\)`)
	listSeparator = regexp.MustCompile(`[,\n;]+`)
)

// Settings locates the worksheets listed.
type Settings struct {
	QuotationsSpreadsheetID string
	AllQuotesWorksheet      string
	ContractsSpreadsheetID  string
	ContractsWorksheet      string
	Location                *time.Location
}

// SettingsFromConfig maps the env config onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		QuotationsSpreadsheetID: cfg.Sheets.QuotationsSpreadsheetID,
		AllQuotesWorksheet:      cfg.Sheets.AllQuotesWorksheet,
		ContractsSpreadsheetID:  cfg.Sheets.ContractsQuotesID,
		ContractsWorksheet:      cfg.Sheets.ContractsWorksheet,
		Location:                cfg.App.Location(),
	}
}

// RequestedFilter narrows the wizard quotations. Empty lists match everything.
type RequestedFilter struct {
	Origins      []string
	Destinations []string
	Services     []string
	Transports   []string
	Containers   []string
	Clients      []string
}

// Requested is one All Quotes row with its derived columns.
type Requested struct {
	Row              map[string]string `json:"row"`
	OriginPorts      []string          `json:"origin_ports"`
	DestinationPorts []string          `json:"destination_ports"`
	TransportCombo   string            `json:"transport_combo"`
}

// RequestedOptions are the distinct filter values across all rows.
type RequestedOptions struct {
	Origins      []string `json:"origins"`
	Destinations []string `json:"destinations"`
	Services     []string `json:"services"`
	Transports   []string `json:"transports"`
	Containers   []string `json:"containers"`
	Clients      []string `json:"clients"`
}

// RequestedList is a filtered listing of wizard quotations.
type RequestedList struct {
	Quotations []Requested      `json:"quotations"`
	Total      int              `json:"total"`
	Counts     map[string]int   `json:"counts"`
	Options    RequestedOptions `json:"options"`
}

// ContractFilter narrows the contract quotations. From and To are inclusive dates.
type ContractFilter struct {
	From    *time.Time
	To      *time.Time
	POL     []string
	POD     []string
	Cargo   []string
	Clients []string
}

// ContractOptions are the distinct filter values across all rows.
type ContractOptions struct {
	POL     []string `json:"pol"`
	POD     []string `json:"pod"`
	Cargo   []string `json:"cargo"`
	Clients []string `json:"clients"`
}

// ContractList is a filtered listing of contract quotations.
type ContractList struct {
	Quotations  []map[string]string `json:"quotations"`
	Total       int                 `json:"total"`
	TotalSale   decimal.Decimal     `json:"total_sale"`
	TotalProfit decimal.Decimal     `json:"total_profit"`
	Options     ContractOptions     `json:"options"`
}

// Service reads the quotation worksheets.
type Service struct {
	cfg    Settings
	sheets sheets.Store
}

func NewService(store sheets.Store, cfg Settings) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("sheets store required")
	}
	if strings.TrimSpace(cfg.QuotationsSpreadsheetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "quotations spreadsheet id is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{cfg: cfg, sheets: store}, nil
}

// Requested lists the wizard quotations matching f.
func (s *Service) Requested(ctx context.Context, f RequestedFilter) (*RequestedList, error) {
	rows, err := s.sheets.ReadAll(ctx, s.cfg.QuotationsSpreadsheetID, s.cfg.AllQuotesWorksheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading quotations")
	}
	all := lo.Map(records(rows), func(r map[string]string, _ int) Requested { return derive(r) })

	out := &RequestedList{
		Quotations: lo.Filter(all, func(q Requested, _ int) bool { return f.match(q) }),
		Counts:     map[string]int{},
		Options:    requestedOptions(all),
	}
	out.Total = len(out.Quotations)
	for _, q := range out.Quotations {
		if q.TransportCombo != "" {
			out.Counts[q.TransportCombo]++
		}
	}
	return out, nil
}

// Contracts lists the contract quotations matching f.
func (s *Service) Contracts(ctx context.Context, f ContractFilter) (*ContractList, error) {
	if strings.TrimSpace(s.cfg.ContractsSpreadsheetID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "contract quotes spreadsheet id is required")
	}
	rows, err := s.sheets.ReadAll(ctx, s.cfg.ContractsSpreadsheetID, s.cfg.ContractsWorksheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading contract quotations")
	}
	all := records(rows)
	out := &ContractList{
		Quotations: lo.Filter(all, func(r map[string]string, _ int) bool { return s.matchContract(f, r) }),
		Options: ContractOptions{
			POL:     distinct(all, "POL"),
			POD:     distinct(all, "POD"),
			Cargo:   distinct(all, "Cargo Types"),
			Clients: distinct(all, "Cliente"),
		},
	}
	out.Total = len(out.Quotations)
	for _, r := range out.Quotations {
		out.TotalSale = out.TotalSale.Add(money(r["Total Sale"]))
		out.TotalProfit = out.TotalProfit.Add(money(r["Total Profit"]))
	}
	return out, nil
}

func (s *Service) matchContract(f ContractFilter, r map[string]string) bool {
	if f.From != nil || f.To != nil {
		at, err := time.ParseInLocation(aggregate.TimeLayout, strings.TrimSpace(r["Time"]), s.cfg.Location)
		if err != nil {
			return false
		}
		day := at.Format(dateLayout)
		if f.From != nil && day < f.From.Format(dateLayout) {
			return false
		}
		if f.To != nil && day > f.To.Format(dateLayout) {
			return false
		}
	}
	return containsAny(r["POL"], f.POL) &&
		containsAny(r["POD"], f.POD) &&
		containsAny(r["Cargo Types"], f.Cargo) &&
		containsAny(r["Cliente"], f.Clients)
}

func (f RequestedFilter) match(q Requested) bool {
	if len(f.Origins) > 0 && !lo.Some(q.OriginPorts, f.Origins) {
		return false
	}
	if len(f.Destinations) > 0 && !lo.Some(q.DestinationPorts, f.Destinations) {
		return false
	}
	if len(f.Services) > 0 && !lo.Some(SplitList(q.Row[aggregate.ColService]), f.Services) {
		return false
	}
	if len(f.Transports) > 0 && !lo.Contains(f.Transports, q.TransportCombo) {
		return false
	}
	if len(f.Containers) > 0 && !lo.Some(SplitList(q.Row[aggregate.ColTypeContainer]), f.Containers) {
		return false
	}
	if len(f.Clients) > 0 && !lo.Contains(f.Clients, q.Row[aggregate.ColClient]) {
		return false
	}
	return true
}

func derive(row map[string]string) Requested {
	q := Requested{Row: row, OriginPorts: []string{}, DestinationPorts: []string{}}
	for _, route := range strings.Split(row[aggregate.ColRoutesInfo], "\n") {
		matches := portPattern.FindAllStringSubmatch(route, -1)
		if len(matches) > 0 {
			q.OriginPorts = append(q.OriginPorts, matches[0][1])
		}
		if len(matches) > 1 {
			q.DestinationPorts = append(q.DestinationPorts, matches[1][1])
		}
	}
	q.TransportCombo = TransportCombo(row[aggregate.ColTransportType], row[aggregate.ColModality])
	return q
}

// TransportCombo joins maritime transport with its modality ("Maritime - FCL").
func TransportCombo(transport, modality string) string {
	transport, modality = strings.TrimSpace(transport), strings.TrimSpace(modality)
	if transport == transportMaritime && modality != "" {
		return transport + " - " + modality
	}
	return transport
}

// SplitList splits a multi-value cell on commas, semicolons and newlines.
func SplitList(cell string) []string {
	return lo.FilterMap(listSeparator.Split(cell, -1), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}

func requestedOptions(all []Requested) RequestedOptions {
	collect := func(fn func(Requested) []string) []string {
		values := lo.Uniq(lo.FlatMap(all, func(q Requested, _ int) []string { return fn(q) }))
		values = lo.Filter(values, func(v string, _ int) bool { return v != "" })
		sort.Strings(values)
		return values
	}
	return RequestedOptions{
		Origins:      collect(func(q Requested) []string { return q.OriginPorts }),
		Destinations: collect(func(q Requested) []string { return q.DestinationPorts }),
		Services:     collect(func(q Requested) []string { return SplitList(q.Row[aggregate.ColService]) }),
		Transports:   collect(func(q Requested) []string { return []string{q.TransportCombo} }),
		Containers:   collect(func(q Requested) []string { return SplitList(q.Row[aggregate.ColTypeContainer]) }),
		Clients:      collect(func(q Requested) []string { return []string{strings.TrimSpace(q.Row[aggregate.ColClient])} }),
	}
}

// records keys each row below the header by column name.
func records(rows [][]string) []map[string]string {
	if len(rows) < 2 {
		return []map[string]string{}
	}
	header := rows[0]
	out := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if lo.EveryBy(row, func(v string) bool { return strings.TrimSpace(v) == "" }) {
			continue
		}
		r := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				r[col] = row[i]
			} else {
				r[col] = ""
			}
		}
		out = append(out, r)
	}
	return out
}

func distinct(rows []map[string]string, col string) []string {
	values := lo.Uniq(lo.FilterMap(rows, func(r map[string]string, _ int) (string, bool) {
		v := strings.TrimSpace(r[col])
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

// containsAny matches when any wanted value appears in the cell.
func containsAny(cell string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	return lo.SomeBy(wanted, func(w string) bool { return strings.Contains(cell, w) })
}

// money reads "$1,234.50" cells written by the contracts desk.
func money(cell string) decimal.Decimal {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(cell))
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}
