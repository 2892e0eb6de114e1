package enums

import "fmt"

// ContainerType enumerates the FCL equipment options.
type ContainerType string

const (
	Container20Dry      ContainerType = "20' Dry Standard"
	Container40Dry      ContainerType = "40' Dry Standard"
	Container40HighCube ContainerType = "40' Dry High Cube"
	ContainerReefer20   ContainerType = "Reefer 20'"
	ContainerReefer40   ContainerType = "Reefer 40'"
	ContainerOpenTop20  ContainerType = "Open Top 20'"
	ContainerOpenTop40  ContainerType = "Open Top 40'"
	ContainerFlatRack20 ContainerType = "Flat Rack 20'"
	ContainerFlatRack40 ContainerType = "Flat Rack 40'"
)

var validContainerTypes = []ContainerType{
	Container20Dry,
	Container40Dry,
	Container40HighCube,
	ContainerReefer20,
	ContainerReefer40,
	ContainerOpenTop20,
	ContainerOpenTop40,
	ContainerFlatRack20,
	ContainerFlatRack40,
}

func (c ContainerType) IsValid() bool {
	for _, candidate := range validContainerTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsFlatRack reports whether the container requires flat rack dimensions.
func (c ContainerType) IsFlatRack() bool {
	return c == ContainerFlatRack20 || c == ContainerFlatRack40
}

// IsReefer reports whether the container is refrigerated.
func (c ContainerType) IsReefer() bool {
	return c == ContainerReefer20 || c == ContainerReefer40
}

// ParseContainerType converts raw input into ContainerType.
func ParseContainerType(value string) (ContainerType, error) {
	for _, candidate := range validContainerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid container type %q", value)
}

// Positioning is where the empty container is handed to the shipper.
type Positioning string

const (
	PositioningInYard        Positioning = "In yard"
	PositioningAtPort        Positioning = "At port"
	PositioningNotApplicable Positioning = "Not Applicable"
)

var validPositionings = []Positioning{PositioningInYard, PositioningAtPort, PositioningNotApplicable}

func (p Positioning) IsValid() bool {
	for _, candidate := range validPositionings {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePositioning converts raw input into Positioning.
func ParsePositioning(value string) (Positioning, error) {
	for _, candidate := range validPositionings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid positioning %q", value)
}

// ReeferType qualifies a 40' reefer.
type ReeferType string

const (
	ReeferControlledAtmosphere ReeferType = "Controlled Atmosphere"
	ReeferColdTreatment        ReeferType = "Cold Treatment"
	ReeferOperating            ReeferType = "Operating Reefer"
)

var validReeferTypes = []ReeferType{ReeferControlledAtmosphere, ReeferColdTreatment, ReeferOperating}

func (r ReeferType) IsValid() bool {
	for _, candidate := range validReeferTypes {
		if candidate == r {
			return true
		}
	}
	return false
}
