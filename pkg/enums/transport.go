package enums

import "fmt"

// TransportType is the international freight carriage mode.
type TransportType string

const (
	TransportMaritime TransportType = "Maritime"
	TransportAir      TransportType = "Air"
)

var validTransportTypes = []TransportType{TransportMaritime, TransportAir}

func (t TransportType) IsValid() bool {
	for _, candidate := range validTransportTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTransportType converts raw input into TransportType.
func ParseTransportType(value string) (TransportType, error) {
	for _, candidate := range validTransportTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transport type %q", value)
}

// Modality is the maritime load mode.
type Modality string

const (
	ModalityFCL Modality = "FCL"
	ModalityLCL Modality = "LCL"
)

var validModalities = []Modality{ModalityFCL, ModalityLCL}

func (m Modality) IsValid() bool {
	for _, candidate := range validModalities {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseModality converts raw input into Modality.
func ParseModality(value string) (Modality, error) {
	for _, candidate := range validModalities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid modality %q", value)
}
