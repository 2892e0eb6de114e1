package enums

import "fmt"

// ServiceType identifies which service payload a quotation entry carries.
type ServiceType string

const (
	ServiceInternationalFreight ServiceType = "International Freight"
	ServiceGroundTransportation ServiceType = "Ground Transportation"
	ServiceCustomsBrokerage     ServiceType = "Customs Brokerage"
)

// ServicePlaceholder is the unselected option of the service picker.
const ServicePlaceholder = "-- Services --"

var validServiceTypes = []ServiceType{
	ServiceInternationalFreight,
	ServiceGroundTransportation,
	ServiceCustomsBrokerage,
}

// IsValid reports whether the value is a concrete service type.
func (s ServiceType) IsValid() bool {
	for _, candidate := range validServiceTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s ServiceType) String() string {
	return string(s)
}

// ParseServiceType converts the raw picker value to ServiceType. The placeholder is rejected.
func ParseServiceType(value string) (ServiceType, error) {
	for _, candidate := range validServiceTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service type %q", value)
}
