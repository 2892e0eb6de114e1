package aggregate

// Column names of the All Quotes worksheet, in row order.
const (
	ColRequestID                = "request_id"
	ColTime                     = "time"
	ColCommercial               = "commercial"
	ColService                  = "service"
	ColClient                   = "client"
	ColClientReference          = "client_reference"
	ColIncoterm                 = "incoterm"
	ColCommodity                = "commodity"
	ColHSCode                   = "hs_code"
	ColTransportType            = "transport_type"
	ColModality                 = "modality"
	ColRoutesInfo               = "routes_info"
	ColGroundRoutes             = "ground_routes"
	ColCountryOrigin            = "country_origin"
	ColCountryDestination       = "country_destination"
	ColPickupAddress            = "pickup_address"
	ColZipCodeOrigin            = "zip_code_origin"
	ColDeliveryAddress          = "delivery_address"
	ColZipCodeDestination       = "zip_code_destination"
	ColAddresses                = "addresses"
	ColTypeContainer            = "type_container"
	ColInfoFlatrack             = "info_flatrack"
	ColContainerCharacteristics = "container_characteristics"
	ColIMO                      = "imo"
	ColGroundService            = "ground_service"
	ColReeferDetails            = "reefer_details"
	ColAdditionalCosts          = "additional_costs"
	ColCargoValue               = "cargo_value"
	ColWeight                   = "weight"
	ColPositioning              = "positioning"
	ColPickupCity               = "pickup_city"
	ColLCLFCLMode               = "lcl_fcl_mode"
	ColInfoPallets              = "info_pallets_str"
	ColLCLDescription           = "lcl_description"
	ColStackable                = "stackable"
	ColFinalComments            = "final_comments"
)

// Columns is the fixed All Quotes schema.
var Columns = []string{
	ColRequestID,
	ColTime,
	ColCommercial,
	ColService,
	ColClient,
	ColClientReference,
	ColIncoterm,
	ColCommodity,
	ColHSCode,
	ColTransportType,
	ColModality,
	ColRoutesInfo,
	ColGroundRoutes,
	ColCountryOrigin,
	ColCountryDestination,
	ColPickupAddress,
	ColZipCodeOrigin,
	ColDeliveryAddress,
	ColZipCodeDestination,
	ColAddresses,
	ColTypeContainer,
	ColInfoFlatrack,
	ColContainerCharacteristics,
	ColIMO,
	ColGroundService,
	ColReeferDetails,
	ColAdditionalCosts,
	ColCargoValue,
	ColWeight,
	ColPositioning,
	ColPickupCity,
	ColLCLFCLMode,
	ColInfoPallets,
	ColLCLDescription,
	ColStackable,
	ColFinalComments,
}
