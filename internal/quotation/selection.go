package quotation

import (
	"github.com/angelmondragon/freightquote-backend/internal/fields"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Selection returns the choices that decide which fields apply.
func (d ServiceDetails) Selection() fields.Selection {
	sel := fields.Selection{Service: d.Service}
	if d.Freight != nil {
		sel.Transport = d.Freight.TransportType
		sel.Modality = d.Freight.Modality
		sel.Incoterm = d.Freight.Incoterm
		if sel.Transport == enums.TransportAir {
			sel.Modality = ""
		}
	}
	return sel
}

// Conditions derives the answer flags that reveal conditional fields.
func (d ServiceDetails) Conditions() fields.Conditions {
	c := fields.Conditions{IMOCargo: d.IMO().IMOCargo}
	if f := d.Freight; f != nil {
		c.Insurance = f.InsuranceRequired
		c.CustomsOrigin = f.CustomsOrigin
		if fcl := f.FCL; fcl != nil {
			c.Tank = fcl.Isotank || fcl.Flexitank
			c.FlatRack = fcl.HasFlatRack()
			c.InYard = fcl.Positioning == enums.PositioningInYard
			for _, container := range fcl.ReeferContainers() {
				c.Reefer = true
				if container == enums.ContainerReefer40 {
					c.Reefer40 = true
				}
			}
		}
		if f.Cargo != nil {
			c.TemperatureControl = f.Cargo.TemperatureControl
		}
	}
	if g := d.Ground; g != nil {
		c.RefrigeratedGround = g.GroundService.IsRefrigerated()
		c.LTL = g.GroundService == enums.GroundLTL
	}
	return c
}

// Fields resolves the visible field groups for the details as they stand.
func (d ServiceDetails) Fields() []fields.Group {
	return fields.Resolve(d.Selection(), d.Conditions())
}

// Requires reports whether key must be answered given the current answers.
func (d ServiceDetails) Requires(key fields.Key) bool {
	return fields.IsRequired(d.Selection(), d.Conditions(), key)
}
