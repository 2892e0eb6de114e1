package fields

// Key names a captured answer. Keys match the JSON names of the quotation details.
type Key string

const (
	KeyService             Key = "service"
	KeyCommodity           Key = "commodity"
	KeyHSCode              Key = "hs_code"
	KeyCargoValue          Key = "cargo_value"
	KeyFinalComments       Key = "final_comments"
	KeyVolumeQuantity      Key = "volumen_num"
	KeyVolumeFrequency     Key = "volumen_frequency"
	KeyAdditionalDocuments Key = "additional_documents_files"

	KeyTransportType      Key = "transport_type"
	KeyModality           Key = "modality"
	KeyIncoterm           Key = "incoterm"
	KeyRoutes             Key = "routes"
	KeyIMOCargo           Key = "imo_cargo"
	KeyIMOType            Key = "imo_type"
	KeyUNCode             Key = "un_code"
	KeyMSDSFiles          Key = "msds_files"
	KeyTemperature        Key = "temperature"
	KeyCustomsOrigin      Key = "customs_origin"
	KeyInsuranceRequired  Key = "insurance_required"
	KeyPickupAddress      Key = "pickup_address"
	KeyZipCodeOrigin      Key = "zip_code_origin"
	KeyDeliveryAddress    Key = "delivery_address"
	KeyZipCodeDestination Key = "zip_code_destination"
	KeyCommercialInvoices Key = "commercial_invoice_files"
	KeyPackingLists       Key = "packing_list_files"
	KeyOriginCertificates Key = "origin_certificate_files"
	KeyWeight             Key = "weight"
	KeyDestinationCost    Key = "destination_cost"

	KeyTypeContainer    Key = "type_container"
	KeyReinforced       Key = "reinforced"
	KeyFoodGrade        Key = "food_grade"
	KeyFlatRack         Key = "dimensions_flatrack"
	KeyIsotank          Key = "isotank"
	KeyFlexitank        Key = "flexitank"
	KeyPositioning      Key = "positioning"
	KeyPickupCity       Key = "pickup_city"
	KeyLCLFCLMode       Key = "lcl_fcl_mode"
	KeyReeferType       Key = "reefer_cont_type"
	KeyPickupThermoKing Key = "pickup_thermo_king"
	KeyDrayageReefer    Key = "drayage_reefer"
	KeyTechnicalSheets  Key = "ts_files"
	KeyTankMSDSFiles    Key = "msds_files_tank"

	KeyPackages           Key = "packages"
	KeyLCLDescription     Key = "lcl_description"
	KeyStackable          Key = "stackable"
	KeyTemperatureControl Key = "temperature_control"

	KeyGroundRoutes       Key = "ground_routes"
	KeyGroundService      Key = "ground_service"
	KeyCountryOrigin      Key = "country_origin"
	KeyCountryDestination Key = "country_destination"
)

// FileKeys are the attachment fields that stage uploads.
var FileKeys = []Key{
	KeyMSDSFiles,
	KeyTankMSDSFiles,
	KeyTechnicalSheets,
	KeyCommercialInvoices,
	KeyPackingLists,
	KeyOriginCertificates,
	KeyAdditionalDocuments,
}

// IsFileKey reports whether key names an attachment field.
func IsFileKey(key Key) bool {
	for _, candidate := range FileKeys {
		if candidate == key {
			return true
		}
	}
	return false
}
