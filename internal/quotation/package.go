package quotation

import "github.com/angelmondragon/freightquote-backend/pkg/enums"

// KilovolumeFactor converts cubic meters into air freight chargeable volume.
const KilovolumeFactor = 166.6

const cubicCentimetersPerCubicMeter = 1_000_000

// Package is a group of identical physical units.
type Package struct {
	PackagingType enums.PackagingType `json:"type_packaging"`
	Quantity      int                 `json:"quantity"`
	WeightPerUnit float64             `json:"weight_per_unit"`
	WeightUnit    enums.WeightUnit    `json:"weight_unit"`
	Length        float64             `json:"length"`
	Width         float64             `json:"width"`
	Height        float64             `json:"height"`
	LengthUnit    enums.LengthUnit    `json:"length_unit"`
	Volume        float64             `json:"volume"`
	Kilovolume    float64             `json:"kilovolume"`
	TotalWeight   float64             `json:"total_weight"`
}

// NewPackage returns the default row appended by "Add Package".
func NewPackage() Package {
	return Package{
		PackagingType: enums.PackagingPallet,
		WeightUnit:    enums.WeightKG,
		LengthUnit:    enums.LengthCM,
	}
}

// UnitWeightKG is the per unit weight normalized to kilograms.
func (p Package) UnitWeightKG() float64 {
	return ToKilograms(p.WeightPerUnit, p.WeightUnit)
}

// ComputeTotalWeight returns the normalized per unit weight times quantity.
func (p Package) ComputeTotalWeight() float64 {
	return p.UnitWeightKG() * float64(p.Quantity)
}

// DimensionsCM returns length, width and height normalized to centimeters.
func (p Package) DimensionsCM() (float64, float64, float64) {
	return ToCentimeters(p.Length, p.LengthUnit),
		ToCentimeters(p.Width, p.LengthUnit),
		ToCentimeters(p.Height, p.LengthUnit)
}

// ComputeVolume returns the total volume in cubic meters. The second value is false
// when any dimension is missing, in which case the captured volume stands.
func (p Package) ComputeVolume() (float64, bool) {
	l, w, h := p.DimensionsCM()
	if l <= 0 || w <= 0 || h <= 0 {
		return 0, false
	}
	return l * w * h / cubicCentimetersPerCubicMeter * float64(p.Quantity), true
}

// Recompute refreshes the derived fields. Air cargo also derives kilovolume from
// the computed volume; a manually captured kilovolume survives when dimensions are missing.
func (p Package) Recompute(transport enums.TransportType) Package {
	p.TotalWeight = p.ComputeTotalWeight()
	if volume, ok := p.ComputeVolume(); ok {
		p.Volume = volume
		if transport == enums.TransportAir {
			p.Kilovolume = volume * KilovolumeFactor
		}
	}
	return p
}

// FlatRack is the out of gauge cargo measured for flat rack containers.
type FlatRack struct {
	Weight     float64          `json:"weight"`
	WeightUnit enums.WeightUnit `json:"weight_unit"`
	Length     float64          `json:"length"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	LengthUnit enums.LengthUnit `json:"length_unit"`
}

// NewFlatRack returns the default flat rack row.
func NewFlatRack() FlatRack {
	return FlatRack{WeightUnit: enums.WeightKG, LengthUnit: enums.LengthCM}
}

// HasValues reports whether any measurement was captured.
func (f FlatRack) HasValues() bool {
	return f.Weight > 0 || f.Length > 0 || f.Width > 0 || f.Height > 0
}

// ToKilograms normalizes a weight.
func ToKilograms(value float64, unit enums.WeightUnit) float64 {
	return value * unit.KilogramFactor()
}

// FromKilograms expresses a kilogram weight in unit.
func FromKilograms(kg float64, unit enums.WeightUnit) float64 {
	return kg / unit.KilogramFactor()
}

// ToCentimeters normalizes a length.
func ToCentimeters(value float64, unit enums.LengthUnit) float64 {
	return value * unit.CentimeterFactor()
}

// FromCentimeters expresses a centimeter length in unit.
func FromCentimeters(cm float64, unit enums.LengthUnit) float64 {
	return cm / unit.CentimeterFactor()
}
