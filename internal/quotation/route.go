package quotation

import "strings"

// Route is a maritime or air leg between two ports or airports.
type Route struct {
	CountryOrigin      string `json:"country_origin"`
	PortOrigin         string `json:"port_origin"`
	CountryDestination string `json:"country_destination"`
	PortDestination    string `json:"port_destination"`
}

// GroundRoute is a door to door trucking leg.
type GroundRoute struct {
	CountryOrigin      string `json:"country_origin"`
	CityOrigin         string `json:"city_origin"`
	PickupAddress      string `json:"pickup_address"`
	ZipCodeOrigin      string `json:"zip_code_origin"`
	CountryDestination string `json:"country_destination"`
	CityDestination    string `json:"city_destination"`
	DeliveryAddress    string `json:"delivery_address"`
	ZipCodeDestination string `json:"zip_code_destination"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (r GroundRoute) Trimmed() GroundRoute {
	return GroundRoute{
		CountryOrigin:      strings.TrimSpace(r.CountryOrigin),
		CityOrigin:         strings.TrimSpace(r.CityOrigin),
		PickupAddress:      strings.TrimSpace(r.PickupAddress),
		ZipCodeOrigin:      strings.TrimSpace(r.ZipCodeOrigin),
		CountryDestination: strings.TrimSpace(r.CountryDestination),
		CityDestination:    strings.TrimSpace(r.CityDestination),
		DeliveryAddress:    strings.TrimSpace(r.DeliveryAddress),
		ZipCodeDestination: strings.TrimSpace(r.ZipCodeDestination),
	}
}
