// Package validation checks drafted service details before they enter the ledger.
package validation

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Error is one user correctable problem tied to the field that caused it.
type Error struct {
	Field   fields.Key `json:"field"`
	Message string     `json:"message"`
}

func (e Error) Error() string { return e.Message }

// Errors is an ordered list of validation errors.
type Errors []Error

// Messages returns the plain messages in order.
func (e Errors) Messages() []string {
	out := make([]string, len(e))
	for i, err := range e {
		out[i] = err.Message
	}
	return out
}

func (e Errors) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Details returns the errors as a field keyed map suitable for API error details.
func (e Errors) Details() map[string]any {
	out := make(map[string]any, len(e))
	for _, err := range e {
		key := string(err.Field)
		if existing, ok := out[key].([]string); ok {
			out[key] = append(existing, err.Message)
			continue
		}
		out[key] = []string{err.Message}
	}
	return out
}

// MsgInvalidService is returned for a missing or placeholder service type.
const MsgInvalidService = "Select a valid service before continuing."

type collector struct {
	errs Errors
	seen map[string]bool
}

func (c *collector) add(field fields.Key, msg string) {
	c.errs = append(c.errs, Error{Field: field, Message: msg})
}

// once suppresses a repeated message for the same field.
func (c *collector) once(field fields.Key, msg string) {
	key := string(field) + "\x00" + msg
	if c.seen[key] {
		return
	}
	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	c.seen[key] = true
	c.add(field, msg)
}

// Validate returns the problems with d in field declaration order. It never mutates d
// and returns nil when d is clean.
func Validate(d quotation.ServiceDetails) Errors {
	c := &collector{}
	if !d.Service.IsValid() {
		c.add(fields.KeyService, MsgInvalidService)
		return c.errs
	}

	if strings.TrimSpace(d.Commodity) == "" {
		c.add(fields.KeyCommodity, "Commodity is required.")
	}
	if d.Requires(fields.KeyIMOType) {
		imo := d.IMO()
		if len(imo.MSDSFiles) == 0 {
			c.add(fields.KeyMSDSFiles, "MSDS is required.")
		}
		if strings.TrimSpace(imo.IMOType) == "" {
			c.add(fields.KeyIMOType, "IMO type is required.")
		}
		if strings.TrimSpace(imo.UNCode) == "" {
			c.add(fields.KeyUNCode, "UN Code is required.")
		}
	}

	switch d.Service {
	case enums.ServiceInternationalFreight:
		validateFreight(c, d)
	case enums.ServiceGroundTransportation:
		validateGround(c, d)
	case enums.ServiceCustomsBrokerage:
		validateCustoms(c, d)
	}
	return c.errs
}

func validateFreight(c *collector, d quotation.ServiceDetails) {
	f := d.Freight
	if f == nil {
		f = &quotation.FreightDetails{}
	}

	if f.InsuranceRequired && d.CargoValue <= 0 {
		c.once(fields.KeyCargoValue, "Cargo value is required.")
	}

	if len(f.Routes) == 0 {
		c.add(fields.KeyRoutes, "At least one route is required.")
	}
	for i, route := range f.Routes {
		n := i + 1
		if blank(route.CountryOrigin) {
			c.add(fields.KeyRoutes, fmt.Sprintf("The origin country of route %d is required.", n))
		}
		if blank(route.PortOrigin) {
			c.add(fields.KeyRoutes, fmt.Sprintf("The origin port of route %d is required.", n))
		}
		if blank(route.CountryDestination) {
			c.add(fields.KeyRoutes, fmt.Sprintf("The destination country of route %d is required.", n))
		}
		if blank(route.PortDestination) {
			c.add(fields.KeyRoutes, fmt.Sprintf("The destination port of route %d is required.", n))
		}
	}

	sel := d.Selection()
	switch {
	case sel.Transport == enums.TransportMaritime && sel.Modality == enums.ModalityFCL:
		validateFCL(c, d, f)
	case d.Requires(fields.KeyPackages):
		var packages []quotation.Package
		if f.Cargo != nil {
			packages = f.Cargo.Packages
		}
		validatePackages(c, packages, f.TransportType == enums.TransportAir)
	}

	if f.Incoterm.In(enums.IncotermFCA, enums.IncotermEXW, enums.IncotermDDP, enums.IncotermDAP) {
		if d.Requires(fields.KeyCargoValue) && d.CargoValue <= 0 {
			c.once(fields.KeyCargoValue, "Cargo value is required.")
		}
		if d.Requires(fields.KeyHSCode) && blank(d.HSCode) {
			c.add(fields.KeyHSCode, "HS Code is required.")
		}
		if d.Requires(fields.KeyPickupAddress) && blank(f.PickupAddress) {
			c.add(fields.KeyPickupAddress, "Pick up Address is required.")
		}
		if d.Requires(fields.KeyDeliveryAddress) && blank(f.DeliveryAddress) {
			c.add(fields.KeyDeliveryAddress, "Delivery address is required.")
		}
	}
}

func validateFCL(c *collector, d quotation.ServiceDetails, f *quotation.FreightDetails) {
	fcl := f.FCL
	if fcl == nil {
		fcl = &quotation.FCLDetails{}
	}
	if len(fcl.Containers) == 0 {
		c.add(fields.KeyTypeContainer, "Choose a container type")
	}
	if d.Requires(fields.KeyFlatRack) {
		if len(fcl.FlatRacks) == 0 {
			c.add(fields.KeyFlatRack, "Flat Rack dimensions must be provided.")
		} else {
			rack := fcl.FlatRacks[0]
			if rack.Weight <= 0 {
				c.add(fields.KeyFlatRack, "Weight must be greater than 0.")
			}
			if rack.Height <= 0 {
				c.add(fields.KeyFlatRack, "Height must be greater than 0.")
			}
			if rack.Length <= 0 {
				c.add(fields.KeyFlatRack, "Length must be greater than 0.")
			}
			if rack.Width <= 0 {
				c.add(fields.KeyFlatRack, "Width must be greater than 0.")
			}
		}
	}
	if d.Requires(fields.KeyPickupCity) && blank(fcl.PickupCity) {
		c.add(fields.KeyPickupCity, "Pick up city is required.")
	}
	if d.Requires(fields.KeyTechnicalSheets) {
		// An MSDS attached for IMO cargo also covers the tank.
		if len(f.MSDSFiles) == 0 && len(fcl.TankMSDSFiles) == 0 {
			c.add(fields.KeyTankMSDSFiles, "MSDS is required.")
		}
		if len(fcl.TechnicalSheets) == 0 {
			c.add(fields.KeyTechnicalSheets, "Technical Sheet is required.")
		}
	}
}

func validatePackages(c *collector, packages []quotation.Package, air bool) {
	if len(packages) == 0 {
		c.add(fields.KeyPackages, "At least one package is required.")
		return
	}
	measure := "volume"
	if air {
		measure = "kilovolume"
	}
	for i, p := range packages {
		n := i + 1
		size := p.Volume
		if air {
			size = p.Kilovolume
		}
		if p.Quantity <= 0 {
			c.add(fields.KeyPackages, fmt.Sprintf("The quantity of package %d must be greater than 0.", n))
		}
		if p.WeightPerUnit <= 0 && size <= 0 {
			c.add(fields.KeyPackages, fmt.Sprintf("The weight or %s of package %d must be greater than 0.", measure, n))
		}
		if p.WeightPerUnit > 0 && size > 0 {
			continue
		}
		if p.Length <= 0 || p.Width <= 0 || p.Height <= 0 {
			c.add(fields.KeyPackages, fmt.Sprintf("The dimensions of package %d must be greater than 0 if weight and %s are not specified.", n, measure))
		}
	}
}

func validateGround(c *collector, d quotation.ServiceDetails) {
	g := d.Ground
	if g == nil {
		g = &quotation.GroundDetails{}
	}
	if len(g.Routes) == 0 {
		c.add(fields.KeyGroundRoutes, "At least one route is required.")
	}
	for i, route := range g.Routes {
		n := i + 1
		checks := []struct {
			value string
			msg   string
		}{
			{route.CountryOrigin, "The country of origin of the route %d is required."},
			{route.CityOrigin, "The city of origin of the route %d is required."},
			{route.PickupAddress, "The pickup address of origin of the route %d is required."},
			{route.ZipCodeOrigin, "The zip code of origin of the route %d is required."},
			{route.CountryDestination, "The country of destination of the route %d is required."},
			{route.CityDestination, "The city of destination of the route %d is required."},
			{route.DeliveryAddress, "The delivery address of the route %d is required."},
			{route.ZipCodeDestination, "The zip code of destination of the route %d is required."},
		}
		for _, check := range checks {
			if blank(check.value) {
				c.add(fields.KeyGroundRoutes, fmt.Sprintf(check.msg, n))
			}
		}
	}
	if d.CargoValue <= 0 {
		c.add(fields.KeyCargoValue, "Cargo value is required.")
	}
	if g.Weight <= 0 {
		c.add(fields.KeyWeight, "Weight is required.")
	}
}

func validateCustoms(c *collector, d quotation.ServiceDetails) {
	cu := d.Customs
	if cu == nil {
		cu = &quotation.CustomsDetails{}
	}
	if blank(cu.CountryOrigin) {
		c.add(fields.KeyCountryOrigin, "Origin Country is required.")
	}
	if blank(cu.CountryDestination) {
		c.add(fields.KeyCountryDestination, "Destination Country is required.")
	}
	if blank(d.HSCode) {
		c.add(fields.KeyHSCode, "HS Code is required.")
	}
	if d.CargoValue <= 0 {
		c.add(fields.KeyCargoValue, "Cargo Value is required.")
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
