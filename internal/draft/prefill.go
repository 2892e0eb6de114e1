package draft

import (
	"strings"

	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// shared are the values carried from earlier services into a new draft.
type shared struct {
	commodity          string
	hsCode             string
	cargoValue         float64
	countryOrigin      string
	countryDestination string
}

func collectShared(entries []quotation.Entry) shared {
	var s shared
	for _, entry := range entries {
		d := entry.Details
		if s.commodity == "" {
			s.commodity = d.Commodity
		}
		if s.hsCode == "" {
			s.hsCode = d.HSCode
		}
		if s.cargoValue <= 0 {
			s.cargoValue = d.CargoValue
		}
		origin, destination := countriesOf(d)
		if s.countryOrigin == "" {
			s.countryOrigin = origin
		}
		if s.countryDestination == "" {
			s.countryDestination = destination
		}
	}
	return s
}

func countriesOf(d quotation.ServiceDetails) (string, string) {
	switch d.Service {
	case enums.ServiceInternationalFreight:
		if d.Freight != nil && len(d.Freight.Routes) > 0 {
			return d.Freight.Routes[0].CountryOrigin, d.Freight.Routes[0].CountryDestination
		}
	case enums.ServiceGroundTransportation:
		if d.Ground != nil && len(d.Ground.Routes) > 0 {
			return d.Ground.Routes[0].CountryOrigin, d.Ground.Routes[0].CountryDestination
		}
	case enums.ServiceCustomsBrokerage:
		if d.Customs != nil {
			return d.Customs.CountryOrigin, d.Customs.CountryDestination
		}
	}
	return "", ""
}

// Prefill copies shared answers from earlier services into empty draft fields.
func (d *Draft) Prefill(entries []quotation.Entry) {
	s := collectShared(entries)
	if strings.TrimSpace(d.Details.Commodity) == "" {
		d.Details.Commodity = s.commodity
	}
	if strings.TrimSpace(d.Details.HSCode) == "" {
		d.Details.HSCode = s.hsCode
	}
	if d.Details.CargoValue <= 0 {
		d.Details.CargoValue = s.cargoValue
	}

	if c := d.Details.Customs; c != nil {
		c.CountryOrigin = firstNonEmpty(c.CountryOrigin, s.countryOrigin)
		c.CountryDestination = firstNonEmpty(c.CountryDestination, s.countryDestination)
	}
	if d.Routes.Len() > 0 {
		route, _ := d.Routes.Get(0)
		route.CountryOrigin = firstNonEmpty(route.CountryOrigin, s.countryOrigin)
		route.CountryDestination = firstNonEmpty(route.CountryDestination, s.countryDestination)
		_ = d.Routes.Set(0, route)
	}
	if d.GroundRoutes.Len() > 0 {
		route, _ := d.GroundRoutes.Get(0)
		route.CountryOrigin = firstNonEmpty(route.CountryOrigin, s.countryOrigin)
		route.CountryDestination = firstNonEmpty(route.CountryDestination, s.countryDestination)
		_ = d.GroundRoutes.Set(0, route)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
