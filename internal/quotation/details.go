package quotation

import (
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Shared carries the fields every service type captures.
type Shared struct {
	Commodity           string                `json:"commodity"`
	HSCode              string                `json:"hs_code"`
	CargoValue          float64               `json:"cargo_value"`
	FinalComments       string                `json:"final_comments"`
	VolumeQuantity      float64               `json:"volumen_num"`
	VolumeFrequency     enums.VolumeFrequency `json:"volumen_frequency"`
	AdditionalDocuments []string              `json:"additional_documents_files,omitempty"`
}

// IMOInfo describes hazardous cargo classification.
type IMOInfo struct {
	IMOCargo  bool     `json:"imo_cargo"`
	IMOType   string   `json:"imo_type,omitempty"`
	UNCode    string   `json:"un_code,omitempty"`
	MSDSFiles []string `json:"msds_files,omitempty"`
}

// CustomsDocuments are the trade documents attached for customs or insurance.
type CustomsDocuments struct {
	CommercialInvoices []string `json:"commercial_invoice_files,omitempty"`
	PackingLists       []string `json:"packing_list_files,omitempty"`
	OriginCertificates []string `json:"origin_certificate_files,omitempty"`
}

// ServiceDetails is one service payload. Exactly one of Freight, Ground or Customs
// is populated and it must match Service.
type ServiceDetails struct {
	Service enums.ServiceType `json:"service"`
	Shared

	Freight *FreightDetails `json:"freight,omitempty"`
	Ground  *GroundDetails  `json:"ground,omitempty"`
	Customs *CustomsDetails `json:"customs,omitempty"`
}

// FreightDetails is the international freight payload.
type FreightDetails struct {
	TransportType enums.TransportType `json:"transport_type"`
	Modality      enums.Modality      `json:"modality,omitempty"`
	Incoterm      enums.Incoterm      `json:"incoterm"`
	Routes        []Route             `json:"routes"`
	IMOInfo

	PickupAddress      string  `json:"pickup_address,omitempty"`
	ZipCodeOrigin      string  `json:"zip_code_origin,omitempty"`
	DeliveryAddress    string  `json:"delivery_address,omitempty"`
	ZipCodeDestination string  `json:"zip_code_destination,omitempty"`
	CustomsOrigin      bool    `json:"customs_origin"`
	InsuranceRequired  bool    `json:"insurance_required"`
	DestinationCost    bool    `json:"destination_cost"`
	Temperature        string  `json:"temperature,omitempty"`
	Weight             float64 `json:"weight,omitempty"`
	CustomsDocuments

	FCL   *FCLDetails   `json:"fcl,omitempty"`
	Cargo *CargoDetails `json:"cargo,omitempty"`
}

// FCLDetails holds the full container load equipment answers.
type FCLDetails struct {
	Containers       []enums.ContainerType `json:"type_container"`
	Reinforced       bool                  `json:"reinforced"`
	FoodGrade        bool                  `json:"food_grade"`
	Isotank          bool                  `json:"isotank"`
	Flexitank        bool                  `json:"flexitank"`
	FlatRacks        []FlatRack            `json:"dimensions_flatrack,omitempty"`
	Positioning      enums.Positioning     `json:"positioning,omitempty"`
	PickupCity       string                `json:"pickup_city,omitempty"`
	LCLFCLMode       bool                  `json:"lcl_fcl_mode"`
	ReeferType       enums.ReeferType      `json:"reefer_cont_type,omitempty"`
	PickupThermoKing bool                  `json:"pickup_thermo_king"`
	DrayageReefer    bool                  `json:"drayage_reefer"`
	TechnicalSheets  []string              `json:"ts_files,omitempty"`
	TankMSDSFiles    []string              `json:"msds_files_tank,omitempty"`
}

// HasFlatRack reports whether any selected container is a flat rack.
func (f *FCLDetails) HasFlatRack() bool {
	if f == nil {
		return false
	}
	for _, c := range f.Containers {
		if c.IsFlatRack() {
			return true
		}
	}
	return false
}

// ReeferContainers returns the selected refrigerated containers.
func (f *FCLDetails) ReeferContainers() []enums.ContainerType {
	if f == nil {
		return nil
	}
	var out []enums.ContainerType
	for _, c := range f.Containers {
		if c.IsReefer() {
			out = append(out, c)
		}
	}
	return out
}

// CargoDetails holds the loose cargo answers used by LCL and air.
type CargoDetails struct {
	Packages           []Package `json:"packages"`
	LCLDescription     string    `json:"lcl_description,omitempty"`
	Stackable          string    `json:"stackable,omitempty"`
	TemperatureControl bool      `json:"temperature_control"`
}

// GroundDetails is the ground transportation payload.
type GroundDetails struct {
	Routes []GroundRoute `json:"ground_routes"`
	IMOInfo

	Weight         float64             `json:"weight"`
	GroundService  enums.GroundService `json:"ground_service"`
	Temperature    string              `json:"temperature,omitempty"`
	Packages       []Package           `json:"packages,omitempty"`
	LCLDescription string              `json:"lcl_description,omitempty"`
	Stackable      string              `json:"stackable,omitempty"`
}

// CustomsDetails is the customs brokerage payload.
type CustomsDetails struct {
	CountryOrigin      string    `json:"country_origin"`
	CountryDestination string    `json:"country_destination"`
	Packages           []Package `json:"packages,omitempty"`
	IMOInfo
	CustomsDocuments
}

// NewDetails returns empty details with the payload matching service.
func NewDetails(service enums.ServiceType) ServiceDetails {
	d := ServiceDetails{Service: service}
	switch service {
	case enums.ServiceInternationalFreight:
		d.Freight = &FreightDetails{
			TransportType: enums.TransportMaritime,
			Modality:      enums.ModalityFCL,
			Incoterm:      enums.IncotermFOB,
		}
	case enums.ServiceGroundTransportation:
		d.Ground = &GroundDetails{GroundService: enums.GroundDrayage20STD}
	case enums.ServiceCustomsBrokerage:
		d.Customs = &CustomsDetails{}
	}
	return d
}

// IMO returns the hazardous cargo block of whichever payload is populated.
func (d ServiceDetails) IMO() IMOInfo {
	switch {
	case d.Freight != nil:
		return d.Freight.IMOInfo
	case d.Ground != nil:
		return d.Ground.IMOInfo
	case d.Customs != nil:
		return d.Customs.IMOInfo
	}
	return IMOInfo{}
}

// Packages returns the package rows of whichever payload carries them.
func (d ServiceDetails) Packages() []Package {
	switch {
	case d.Freight != nil && d.Freight.Cargo != nil:
		return d.Freight.Cargo.Packages
	case d.Ground != nil:
		return d.Ground.Packages
	case d.Customs != nil:
		return d.Customs.Packages
	}
	return nil
}

// TransportType is empty for non-freight services.
func (d ServiceDetails) TransportType() enums.TransportType {
	if d.Freight == nil {
		return ""
	}
	return d.Freight.TransportType
}

// Entry is one finalized service in the ledger. ID scopes the entry's staged attachments.
type Entry struct {
	ID          string            `json:"id"`
	ServiceType enums.ServiceType `json:"service"`
	Details     ServiceDetails    `json:"details"`
}
