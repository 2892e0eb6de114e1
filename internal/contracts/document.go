package contracts

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	documentSheet     = "Quotation"
	documentDateFmt   = "02/01/2006"
	validityDays      = 30
	firstSurchargeRow = 25
	notesRow          = 33
	additionalLabel   = "Additional"
)

// Commercial is the rep block printed on the document.
type Commercial struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Document renders the quotation workbook issued on issued.
func Document(q Quote, rep Commercial, issued time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), documentSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	widths := map[string]float64{"A": 4, "B": 28, "C": 28, "D": 16, "E": 14, "F": 30, "G": 14}
	for col, w := range widths {
		if err := f.SetColWidth(documentSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create bold style: %w", err)
	}
	moneyFmt := "$#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("create total style: %w", err)
	}
	notesStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, fmt.Errorf("create notes style: %w", err)
	}

	set := func(cell string, v any) error {
		if err := f.SetCellValue(documentSheet, cell, v); err != nil {
			return fmt.Errorf("set %s: %w", cell, err)
		}
		return nil
	}
	style := func(cell string, id int) error {
		if err := f.SetCellStyle(documentSheet, cell, cell, id); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
		return nil
	}

	header := []struct {
		cell  string
		value any
	}{
		{"B2", "QUOTATION"},
		{"E4", "Commercial"}, {"F4", orNA(rep.Name)},
		{"E5", "Position"}, {"F5", orNA(rep.Position)},
		{"E6", "Phone"}, {"F6", orNA(rep.Phone)},
		{"E7", "Email"}, {"F7", orNA(rep.Email)},
		{"B10", "Date"}, {"C10", issued.Format(documentDateFmt)},
		{"F10", "Valid until"}, {"G10", issued.AddDate(0, 0, validityDays).Format(documentDateFmt)},
		{"B12", "Client"}, {"B13", orNA(q.Request.Client)},
		{"B19", "Incoterm"}, {"C19", orNA(string(q.Request.Incoterm))},
		{"B20", "Commodity"}, {"C20", orNA(q.Contract.Commodities)},
		{"B21", "Route"}, {"C21", fmt.Sprintf("%s - %s", orNA(q.Contract.POL), orNA(q.Contract.POD))},
		{"B22", "Cargo"}, {"C22", strings.Join(q.Request.CargoTypes, ", ")},
		{"B24", "Concept"}, {"D24", "Container"}, {"F24", "Amount"},
	}
	for _, h := range header {
		if err := set(h.cell, h.value); err != nil {
			return nil, err
		}
	}
	for _, cell := range []string{"B2", "B24", "D24", "F24"} {
		if err := style(cell, boldStyle); err != nil {
			return nil, err
		}
	}

	row := firstSurchargeRow
	totals := make(map[string]decimal.Decimal)
	var order []string
	addLine := func(concept, container string, amount decimal.Decimal) error {
		if !amount.IsPositive() {
			return nil
		}
		r := fmt.Sprint(row)
		if err := set("B"+r, strings.ToUpper(concept)); err != nil {
			return err
		}
		if err := set("D"+r, container); err != nil {
			return err
		}
		if err := set("F"+r, amount.InexactFloat64()); err != nil {
			return err
		}
		if err := style("F"+r, moneyStyle); err != nil {
			return err
		}
		if _, ok := totals[container]; !ok {
			order = append(order, container)
		}
		totals[container] = totals[container].Add(amount)
		row++
		return nil
	}
	for _, l := range q.Lines {
		if err := addLine(l.Concept, l.Container, l.Sale); err != nil {
			return nil, err
		}
	}
	for _, a := range q.Additional {
		if err := addLine(a.Concept, additionalLabel, a.Sale); err != nil {
			return nil, err
		}
	}

	r := fmt.Sprint(row)
	if err := set("B"+r, "Total"); err != nil {
		return nil, err
	}
	if err := style("B"+r, boldStyle); err != nil {
		return nil, err
	}
	for i, container := range order {
		r := fmt.Sprint(row + i)
		if err := set("D"+r, container); err != nil {
			return nil, err
		}
		if err := style("D"+r, boldStyle); err != nil {
			return nil, err
		}
		if err := set("F"+r, totals[container].InexactFloat64()); err != nil {
			return nil, err
		}
		if err := style("F"+r, totalStyle); err != nil {
			return nil, err
		}
	}
	row += max(len(order), 1) + 1

	notesAt := fmt.Sprintf("B%d", max(notesRow, row))
	if err := set(notesAt, Notes(q.Contract)); err != nil {
		return nil, err
	}
	if err := style(notesAt, notesStyle); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Notes is the contract summary printed under the surcharge table.
func Notes(ct Contract) string {
	lines := []string{
		fmt.Sprintf("Transit Time: %s days", orNA(ct.TransitTime)),
		"Route: " + orNA(ct.Route),
		"Free Days in Origin: " + orNA(ct.FreeDaysOrigin),
		"Free Days in Destination: " + orNA(ct.FreeDaysDestination),
		"Notes: " + ct.Notes,
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return "N/A"
	}
	return v
}
