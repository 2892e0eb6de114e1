package enums

import "fmt"

// WeightUnit is the unit a package or flat rack weight is captured in.
type WeightUnit string

const (
	WeightKG  WeightUnit = "KG"
	WeightTon WeightUnit = "Ton"
	WeightLbs WeightUnit = "Lbs"
)

var weightFactors = map[WeightUnit]float64{
	WeightKG:  1,
	WeightTon: 1000,
	WeightLbs: 0.453592,
}

func (w WeightUnit) IsValid() bool {
	_, ok := weightFactors[w]
	return ok
}

// KilogramFactor returns the multiplier that normalizes the unit to kilograms.
// Unknown units normalize as kilograms.
func (w WeightUnit) KilogramFactor() float64 {
	if factor, ok := weightFactors[w]; ok {
		return factor
	}
	return 1
}

// ParseWeightUnit converts raw input into WeightUnit.
func ParseWeightUnit(value string) (WeightUnit, error) {
	unit := WeightUnit(value)
	if !unit.IsValid() {
		return "", fmt.Errorf("invalid weight unit %q", value)
	}
	return unit, nil
}

// LengthUnit is the unit package or flat rack dimensions are captured in.
type LengthUnit string

const (
	LengthCM     LengthUnit = "CM"
	LengthM      LengthUnit = "M"
	LengthMM     LengthUnit = "MM"
	LengthInches LengthUnit = "Inches"
)

var lengthFactors = map[LengthUnit]float64{
	LengthCM:     1,
	LengthM:      100,
	LengthMM:     0.1,
	LengthInches: 2.54,
}

func (l LengthUnit) IsValid() bool {
	_, ok := lengthFactors[l]
	return ok
}

// CentimeterFactor returns the multiplier that normalizes the unit to centimeters.
func (l LengthUnit) CentimeterFactor() float64 {
	if factor, ok := lengthFactors[l]; ok {
		return factor
	}
	return 1
}

// ParseLengthUnit converts raw input into LengthUnit.
func ParseLengthUnit(value string) (LengthUnit, error) {
	unit := LengthUnit(value)
	if !unit.IsValid() {
		return "", fmt.Errorf("invalid length unit %q", value)
	}
	return unit, nil
}

// PackagingType is the physical form of a package group.
type PackagingType string

const (
	PackagingPallet PackagingType = "Pallet"
	PackagingBox    PackagingType = "Box"
	PackagingBag    PackagingType = "Bag"
)

func (p PackagingType) IsValid() bool {
	switch p {
	case PackagingPallet, PackagingBox, PackagingBag:
		return true
	default:
		return false
	}
}

// VolumeFrequency is the cadence of the expected cargo volume.
type VolumeFrequency string

const (
	FrequencyNone    VolumeFrequency = ""
	FrequencyWeekly  VolumeFrequency = "Weekly"
	FrequencyMonthly VolumeFrequency = "Monthly"
)

func (f VolumeFrequency) IsValid() bool {
	switch f {
	case FrequencyNone, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}
