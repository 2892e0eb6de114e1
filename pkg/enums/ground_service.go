package enums

import "fmt"

// GroundService is the truck or drayage product quoted for ground transportation.
type GroundService string

const (
	GroundDrayage20STD       GroundService = "Drayage 20 STD"
	GroundDrayage40STDHC     GroundService = "Drayage 40 STD/40 HC"
	GroundDryvan             GroundService = "Dryvan"
	GroundFTL53              GroundService = "FTL 53 FT"
	GroundFlatBed            GroundService = "Flat Bed"
	GroundBoxTruck           GroundService = "Box Truck"
	GroundDrayageReefer20STD GroundService = "Drayage Reefer 20 STD"
	GroundDrayageReefer40STD GroundService = "Drayage Reefer 40 STD"
	GroundTractomula         GroundService = "Tractomula"
	GroundMulaRefrigerada    GroundService = "Mula Refrigerada"
	GroundLTL                GroundService = "LTL"
)

var validGroundServices = []GroundService{
	GroundDrayage20STD,
	GroundDrayage40STDHC,
	GroundDryvan,
	GroundFTL53,
	GroundFlatBed,
	GroundBoxTruck,
	GroundDrayageReefer20STD,
	GroundDrayageReefer40STD,
	GroundTractomula,
	GroundMulaRefrigerada,
	GroundLTL,
}

func (g GroundService) IsValid() bool {
	for _, candidate := range validGroundServices {
		if candidate == g {
			return true
		}
	}
	return false
}

// IsRefrigerated reports whether the ground product carries temperature controlled cargo.
func (g GroundService) IsRefrigerated() bool {
	switch g {
	case GroundMulaRefrigerada, GroundDrayageReefer20STD, GroundDrayageReefer40STD:
		return true
	default:
		return false
	}
}

// ParseGroundService converts raw input into GroundService.
func ParseGroundService(value string) (GroundService, error) {
	for _, candidate := range validGroundServices {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ground service %q", value)
}
