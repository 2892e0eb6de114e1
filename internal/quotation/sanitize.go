package quotation

import (
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Sanitize drops every answer the allowlist does not keep for the service, transport
// and modality. Payloads of other service types are removed. The input is not modified.
func Sanitize(d ServiceDetails) ServiceDetails {
	allowed := fields.Allowed(d.Selection())
	out := ServiceDetails{Service: d.Service, Shared: d.Shared}
	out.AdditionalDocuments = cloneStrings(d.AdditionalDocuments)

	switch d.Service {
	case enums.ServiceInternationalFreight:
		if d.Freight != nil {
			out.Freight = sanitizeFreight(*d.Freight, allowed)
		}
	case enums.ServiceGroundTransportation:
		if d.Ground != nil {
			g := *d.Ground
			out.Ground = &g
		}
	case enums.ServiceCustomsBrokerage:
		if d.Customs != nil {
			c := *d.Customs
			out.Customs = &c
		}
	default:
		out.Shared = Shared{}
	}
	return out
}

func sanitizeFreight(f FreightDetails, allowed map[fields.Key]bool) *FreightDetails {
	if !allowed[fields.KeyModality] {
		f.Modality = ""
	}
	if !allowed[fields.KeyTemperature] {
		f.Temperature = ""
	}
	if allowed[fields.KeyTypeContainer] {
		if f.FCL == nil {
			f.FCL = &FCLDetails{}
		} else {
			fcl := *f.FCL
			f.FCL = &fcl
		}
	} else {
		f.FCL = nil
	}
	if allowed[fields.KeyPackages] {
		if f.Cargo == nil {
			f.Cargo = &CargoDetails{}
		} else {
			cargo := *f.Cargo
			f.Cargo = &cargo
		}
		if !allowed[fields.KeyTemperatureControl] {
			f.Cargo.TemperatureControl = false
		}
	} else {
		f.Cargo = nil
	}
	return &f
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
