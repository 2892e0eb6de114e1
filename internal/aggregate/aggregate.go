// Package aggregate flattens a quotation's services into one spreadsheet record.
package aggregate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/samber/lo"
)

// TimeLayout formats the record time column.
const TimeLayout = "2006-01-02 15:04:05"

const (
	noReeferDetails   = "No reefer details"
	noAdditionalCosts = "No additional costs"
)

// Meta is the quotation level data that does not come from the services.
type Meta struct {
	RequestID       string
	FolderLink      string
	Commercial      string
	Client          string
	ClientReference string
	EndTime         time.Time
	Location        *time.Location
}

// Record is one flattened quotation keyed by column name.
type Record struct {
	RequestID string
	Services  []enums.ServiceType
	values    map[string]string
}

// Get returns a column value, empty when absent.
func (r Record) Get(column string) string {
	return r.values[column]
}

// Row returns the values in the fixed column order.
func (r Record) Row() []string {
	out := make([]string, len(Columns))
	for i, col := range Columns {
		out[i] = r.values[col]
	}
	return out
}

// Map returns a copy of the values limited to the schema columns.
func (r Record) Map() map[string]string {
	out := make(map[string]string, len(Columns))
	for _, col := range Columns {
		out[col] = r.values[col]
	}
	return out
}

// HyperlinkCell renders the request id as a spreadsheet link to its folder.
func HyperlinkCell(link, requestID string) string {
	return fmt.Sprintf(`=HYPERLINK("%s"; "%s")`, link, requestID)
}

// set de-duplicates values and joins them in sorted order.
type set map[string]struct{}

func (s set) add(values ...string) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

func (s set) join() string {
	keys := lo.Keys(s)
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

// excluded keys are projected by dedicated rules and never reach the catch-all.
var excluded = map[string]bool{
	"service": true, "reinforced": true, "food_grade": true, "isotank": true, "flexitank": true,
	"imo_cargo": true, "imo_type": true, "un_code": true, "routes": true, "packages": true,
	"dimensions_flatrack": true, "customs_origin": true, "destination_cost": true,
	"type_container": true, "ground_routes": true, "insurance_required": true,
	"pickup_address": true, "zip_code_origin": true, "delivery_address": true,
	"zip_code_destination": true, "country_origin": true, "country_destination": true,
	"drayage_reefer": true, "pickup_thermo_king": true, "reefer_cont_type": true,
	"temperature_control": true,
}

// nested payload objects flattened into the catch-all.
var nested = map[string]bool{"freight": true, "ground": true, "customs": true, "fcl": true, "cargo": true}

type accumulator struct {
	sets     map[string]set
	scalars  map[string]string
	catchAll map[string]set
	services []enums.ServiceType
}

func newAccumulator() *accumulator {
	acc := &accumulator{
		sets:     make(map[string]set),
		scalars:  make(map[string]string),
		catchAll: make(map[string]set),
	}
	for _, col := range []string{ColService, ColRoutesInfo, ColTypeContainer, ColContainerCharacteristics, ColIMO, ColInfoFlatrack, ColInfoPallets} {
		acc.sets[col] = set{}
	}
	acc.scalars[ColReeferDetails] = noReeferDetails
	acc.scalars[ColAdditionalCosts] = noAdditionalCosts
	return acc
}

// Aggregate reduces entries, in ledger order, into one record. Set valued columns are
// de-duplicated and sorted; address and country columns follow the last service that
// sets them.
func Aggregate(meta Meta, entries []quotation.Entry) (Record, error) {
	acc := newAccumulator()
	for _, entry := range entries {
		if err := acc.project(entry); err != nil {
			return Record{}, err
		}
	}

	values := make(map[string]string, len(Columns))
	for key, s := range acc.catchAll {
		values[key] = s.join()
	}
	for key, v := range acc.scalars {
		values[key] = v
	}
	for key, s := range acc.sets {
		values[key] = s.join()
	}

	loc := meta.Location
	if loc == nil {
		loc = time.UTC
	}
	values[ColRequestID] = HyperlinkCell(meta.FolderLink, meta.RequestID)
	values[ColTime] = meta.EndTime.In(loc).Format(TimeLayout)
	values[ColCommercial] = meta.Commercial
	values[ColClient] = meta.Client
	values[ColClientReference] = meta.ClientReference

	return Record{RequestID: meta.RequestID, Services: acc.services, values: values}, nil
}

func (a *accumulator) project(entry quotation.Entry) error {
	d := entry.Details
	a.sets[ColService].add(string(entry.ServiceType))
	if !lo.Contains(a.services, entry.ServiceType) {
		a.services = append(a.services, entry.ServiceType)
	}
	a.sets[ColIMO].add(imoLine(d.IMO()))

	if f := d.Freight; f != nil {
		a.projectFreight(f)
	}
	if g := d.Ground; g != nil {
		a.projectGround(g)
	}
	if c := d.Customs; c != nil {
		a.scalars[ColCountryOrigin] = strings.TrimSpace(c.CountryOrigin)
		a.scalars[ColCountryDestination] = strings.TrimSpace(c.CountryDestination)
	}
	if packages := d.Packages(); len(packages) > 0 {
		a.sets[ColInfoPallets].add(packageLines(packages, d.TransportType())...)
	}
	if reefer, ok := reeferDetails(d); ok {
		a.scalars[ColReeferDetails] = reefer
	}
	return a.collect(d)
}

func (a *accumulator) projectFreight(f *quotation.FreightDetails) {
	if fcl := f.FCL; fcl != nil {
		for _, c := range fcl.Containers {
			a.sets[ColTypeContainer].add(string(c))
		}
		if traits := characteristics(fcl); traits != "" {
			a.sets[ColContainerCharacteristics].add(traits)
		}
		if lo.SomeBy(fcl.FlatRacks, quotation.FlatRack.HasValues) {
			a.sets[ColInfoFlatrack].add(flatRackLines(fcl.FlatRacks))
		}
	}

	if len(f.Routes) == 1 {
		r := f.Routes[0]
		a.scalars[ColCountryOrigin] = r.CountryOrigin
		a.scalars[ColCountryDestination] = r.CountryDestination
		a.sets[ColRoutesInfo].add(routeLine(r))
	} else {
		for i, r := range f.Routes {
			a.sets[ColRoutesInfo].add(fmt.Sprintf("Route %d: %s", i+1, routeLine(r)))
		}
	}

	a.scalars[ColPickupAddress] = f.PickupAddress
	a.scalars[ColDeliveryAddress] = f.DeliveryAddress
	a.scalars[ColZipCodeOrigin] = f.ZipCodeOrigin
	a.scalars[ColZipCodeDestination] = f.ZipCodeDestination

	var costs []string
	if f.DestinationCost {
		costs = append(costs, "Destination Cost Required")
	}
	if f.CustomsOrigin {
		costs = append(costs, "Customs at Origin Required")
	}
	if f.InsuranceRequired {
		costs = append(costs, "Insurance Required")
	}
	if len(costs) > 0 {
		a.scalars[ColAdditionalCosts] = strings.Join(costs, "\n")
	} else {
		a.scalars[ColAdditionalCosts] = noAdditionalCosts
	}
}

func (a *accumulator) projectGround(g *quotation.GroundDetails) {
	var routes, addresses []string
	if len(g.Routes) > 0 {
		first := g.Routes[0].Trimmed()
		a.scalars[ColCountryOrigin] = first.CountryOrigin
		a.scalars[ColCountryDestination] = first.CountryDestination
	}
	for i, raw := range g.Routes {
		r := raw.Trimmed()
		n := i + 1
		if r.CityOrigin != "" && r.CountryOrigin != "" && r.CityDestination != "" && r.CountryDestination != "" {
			routes = append(routes, fmt.Sprintf("Route %d: %s (%s) → %s (%s)", n, r.CityOrigin, r.CountryOrigin, r.CityDestination, r.CountryDestination))
		}
		if r.PickupAddress != "" && r.ZipCodeOrigin != "" && r.DeliveryAddress != "" && r.ZipCodeDestination != "" {
			addresses = append(addresses, fmt.Sprintf("Address %d: %s (%s) → %s (%s)", n, r.PickupAddress, r.ZipCodeOrigin, r.DeliveryAddress, r.ZipCodeDestination))
		}
	}
	a.scalars[ColGroundRoutes] = strings.Join(routes, "\n")
	a.scalars[ColAddresses] = strings.Join(addresses, "\n")
}

// collect feeds the remaining scalar answers into the per key catch-all.
func (a *accumulator) collect(d quotation.ServiceDetails) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode service details: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return fmt.Errorf("decode service details: %w", err)
	}
	a.walk(tree)
	return nil
}

func (a *accumulator) walk(tree map[string]any) {
	for key, value := range tree {
		if child, ok := value.(map[string]any); ok && nested[key] {
			a.walk(child)
			continue
		}
		if excluded[key] {
			continue
		}
		text, ok := scalarText(value)
		if !ok {
			continue
		}
		if a.catchAll[key] == nil {
			a.catchAll[key] = set{}
		}
		a.catchAll[key].add(text)
	}
}

// scalarText renders a non-empty scalar. Zero numbers, false and empty strings are skipped.
func scalarText(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		if !v {
			return "", false
		}
		return "Yes", true
	}
	return "", false
}

func imoLine(imo quotation.IMOInfo) string {
	if !imo.IMOCargo {
		return "No"
	}
	return fmt.Sprintf("Yes, IMO Type: %s, UN Code: %s", orNA(imo.IMOType), orNA(imo.UNCode))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func routeLine(r quotation.Route) string {
	return fmt.Sprintf("%s (%s) → %s (%s)", r.CountryOrigin, r.PortOrigin, r.CountryDestination, r.PortDestination)
}

func characteristics(fcl *quotation.FCLDetails) string {
	var traits []string
	if fcl.Reinforced {
		traits = append(traits, "Reinforced")
	}
	if fcl.FoodGrade {
		traits = append(traits, "Food Grade")
	}
	if fcl.Isotank {
		traits = append(traits, "Isotank")
	}
	if fcl.Flexitank {
		traits = append(traits, "Flexitank")
	}
	return strings.Join(traits, "\n")
}

func packageLines(packages []quotation.Package, transport enums.TransportType) []string {
	lines := make(set)
	var total float64
	for i, p := range packages {
		total += p.TotalWeight
		volume, label := p.Volume, "CBM"
		if transport == enums.TransportAir {
			volume, label = p.Kilovolume, "KVM"
		}
		lines.add(fmt.Sprintf(
			"Package %d: Type: %s, Quantity: %d, Unit Weight: %.2f %s, Total Weight: %.2f KG,Volume: %.2f %s, Dimensions: %.2f %s x %.2f %s x %.2f %s",
			i+1, p.PackagingType, p.Quantity, p.WeightPerUnit, orDefault(string(p.WeightUnit), "KG"), p.TotalWeight,
			volume, label,
			p.Length, orDefault(string(p.LengthUnit), "CM"),
			p.Width, orDefault(string(p.LengthUnit), "CM"),
			p.Height, orDefault(string(p.LengthUnit), "CM"),
		))
	}
	return []string{lines.join(), fmt.Sprintf("Total weight of all packages: %.2f KG", total)}
}

func flatRackLines(racks []quotation.FlatRack) string {
	lines := lo.Map(racks, func(f quotation.FlatRack, _ int) string {
		unit := orDefault(string(f.LengthUnit), "CM")
		return fmt.Sprintf("Weight: %.2f %s, Dimensions: %.2f %s x %.2f %s x %.2f %s",
			f.Weight, orDefault(string(f.WeightUnit), "KG"), f.Length, unit, f.Width, unit, f.Height, unit)
	})
	return strings.Join(lines, "\n")
}

// reeferDetails describes refrigerated handling. ok is false for services without
// refrigerated equipment, which leave the column to earlier services.
func reeferDetails(d quotation.ServiceDetails) (string, bool) {
	var lines []string
	switch {
	case d.Freight != nil && len(d.Freight.FCL.ReeferContainers()) > 0:
		fcl := d.Freight.FCL
		if fcl.DrayageReefer {
			lines = append(lines, "Drayage Reefer Required")
		}
		if fcl.PickupThermoKing {
			lines = append(lines, "Thermo King Pickup Required")
		}
		if fcl.ReeferType != "" {
			lines = append(lines, fmt.Sprintf("Reefer Container Type: %s", fcl.ReeferType))
		}
		lines = appendTemperature(lines, d.Freight.Temperature)
	case d.Freight != nil && d.Freight.Cargo != nil && d.Freight.Cargo.TemperatureControl:
		lines = append(lines, "Temperature Control Required")
		lines = appendTemperature(lines, d.Freight.Temperature)
	case d.Ground != nil && d.Ground.GroundService.IsRefrigerated():
		lines = appendTemperature(lines, d.Ground.Temperature)
	default:
		return "", false
	}
	if len(lines) == 0 {
		return noReeferDetails, true
	}
	return strings.Join(lines, "\n"), true
}

func appendTemperature(lines []string, temperature string) []string {
	if strings.TrimSpace(temperature) == "" {
		return lines
	}
	return append(lines, fmt.Sprintf("Temperature Range: %s°C", temperature))
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
