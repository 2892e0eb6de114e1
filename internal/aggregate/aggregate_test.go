package aggregate

import (
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/internal/quotation"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fclEntry() quotation.Entry {
	d := quotation.NewDetails(enums.ServiceInternationalFreight)
	d.Commodity = "Electronics"
	d.HSCode = "8471"
	d.Freight.Incoterm = enums.IncotermFOB
	d.Freight.Routes = []quotation.Route{{CountryOrigin: "CO", PortOrigin: "BAQ", CountryDestination: "US", PortDestination: "MIA"}}
	d.Freight.PickupAddress = "Zona Franca"
	d.Freight.FCL = &quotation.FCLDetails{Containers: []enums.ContainerType{enums.Container20Dry}}
	return quotation.Entry{ID: "a", ServiceType: d.Service, Details: quotation.Sanitize(d)}
}

func groundEntry() quotation.Entry {
	d := quotation.NewDetails(enums.ServiceGroundTransportation)
	d.Commodity = "Coffee"
	d.CargoValue = 1500
	d.Ground.Weight = 800
	d.Ground.Routes = []quotation.GroundRoute{{
		CountryOrigin: "United States", CityOrigin: "Miami", PickupAddress: "1 Port Blvd", ZipCodeOrigin: "33132",
		CountryDestination: "United States", CityDestination: "Atlanta", DeliveryAddress: "2 Peach St", ZipCodeDestination: "30303",
	}}
	return quotation.Entry{ID: "b", ServiceType: d.Service, Details: quotation.Sanitize(d)}
}

func meta() Meta {
	return Meta{
		RequestID:  "Q0007",
		FolderLink: "https://drive.google.com/drive/folders/abc",
		Commercial: "Pricing Desk",
		Client:     "ACME",
		EndTime:    time.Date(2024, 3, 1, 17, 4, 5, 0, time.UTC),
		Location:   time.FixedZone("COT", -5*3600),
	}
}

func TestAggregateSingleFCL(t *testing.T) {
	rec, err := Aggregate(meta(), []quotation.Entry{fclEntry()})
	require.NoError(t, err)

	assert.Equal(t, "CO (BAQ) → US (MIA)", rec.Get(ColRoutesInfo))
	assert.Equal(t, "20' Dry Standard", rec.Get(ColTypeContainer))
	assert.Equal(t, "CO", rec.Get(ColCountryOrigin))
	assert.Equal(t, "US", rec.Get(ColCountryDestination))
	assert.Equal(t, "No", rec.Get(ColIMO))
	assert.Equal(t, "FOB", rec.Get(ColIncoterm))
	assert.Equal(t, "Maritime", rec.Get(ColTransportType))
	assert.Equal(t, "No reefer details", rec.Get(ColReeferDetails))
	assert.Equal(t, "No additional costs", rec.Get(ColAdditionalCosts))
	assert.Equal(t, `=HYPERLINK("https://drive.google.com/drive/folders/abc"; "Q0007")`, rec.Get(ColRequestID))
	assert.Equal(t, "2024-03-01 12:04:05", rec.Get(ColTime))
	assert.Len(t, rec.Row(), len(Columns))
	assert.Equal(t, "Q0007", rec.RequestID)
}

func TestAggregateDuplicatesCollapse(t *testing.T) {
	a, b := fclEntry(), fclEntry()
	b.Details.Freight.FCL.Containers = []enums.ContainerType{enums.Container40HighCube, enums.Container20Dry}

	ab, err := Aggregate(meta(), []quotation.Entry{a, b})
	require.NoError(t, err)
	ba, err := Aggregate(meta(), []quotation.Entry{b, a})
	require.NoError(t, err)
	assert.Equal(t, ab.Row(), ba.Row())
	assert.Equal(t, "20' Dry Standard\n40' Dry High Cube", ab.Get(ColTypeContainer))
	assert.Equal(t, "International Freight", ab.Get(ColService))
}

func twoRouteEntry() quotation.Entry {
	e := fclEntry()
	e.Details.Freight.Routes = []quotation.Route{
		{CountryOrigin: "CO", PortOrigin: "BAQ", CountryDestination: "US", PortDestination: "MIA"},
		{CountryOrigin: "US", PortOrigin: "MIA", CountryDestination: "CA", PortDestination: "YYZ"},
	}
	return e
}

func TestAggregateSetColumns(t *testing.T) {
	cases := []struct {
		name       string
		entries    []quotation.Entry
		routes     string
		containers string
		commodity  string
	}{
		{
			name:       "identical entries collapse",
			entries:    []quotation.Entry{fclEntry(), fclEntry()},
			routes:     "CO (BAQ) → US (MIA)",
			containers: "20' Dry Standard",
			commodity:  "Electronics",
		},
		{
			name:       "single route has no prefix",
			entries:    []quotation.Entry{fclEntry()},
			routes:     "CO (BAQ) → US (MIA)",
			containers: "20' Dry Standard",
			commodity:  "Electronics",
		},
		{
			name:       "multiple routes are numbered and deduplicated",
			entries:    []quotation.Entry{twoRouteEntry(), twoRouteEntry()},
			routes:     "Route 1: CO (BAQ) → US (MIA)\nRoute 2: US (MIA) → CA (YYZ)",
			containers: "20' Dry Standard",
			commodity:  "Electronics",
		},
		{
			name:       "single and multiple routes sort together",
			entries:    []quotation.Entry{twoRouteEntry(), fclEntry()},
			routes:     "CO (BAQ) → US (MIA)\nRoute 1: CO (BAQ) → US (MIA)\nRoute 2: US (MIA) → CA (YYZ)",
			containers: "20' Dry Standard",
			commodity:  "Electronics",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Aggregate(meta(), tc.entries)
			require.NoError(t, err)
			assert.Equal(t, tc.routes, rec.Get(ColRoutesInfo))
			assert.Equal(t, tc.containers, rec.Get(ColTypeContainer))
			assert.Equal(t, tc.commodity, rec.Get(ColCommodity))
			assert.Equal(t, "International Freight", rec.Get(ColService))
			assert.Equal(t, "No", rec.Get(ColIMO))
		})
	}
}

func TestAggregateLastWriteWinsAcrossTypes(t *testing.T) {
	freightFirst, err := Aggregate(meta(), []quotation.Entry{fclEntry(), groundEntry()})
	require.NoError(t, err)
	groundFirst, err := Aggregate(meta(), []quotation.Entry{groundEntry(), fclEntry()})
	require.NoError(t, err)

	assert.Equal(t, "United States", freightFirst.Get(ColCountryOrigin))
	assert.Equal(t, "CO", groundFirst.Get(ColCountryOrigin))
	assert.Equal(t, "Route 1: Miami (United States) → Atlanta (United States)", freightFirst.Get(ColGroundRoutes))
	assert.Equal(t, "Address 1: 1 Port Blvd (33132) → 2 Peach St (30303)", freightFirst.Get(ColAddresses))
	assert.Equal(t, "Zona Franca", groundFirst.Get(ColPickupAddress))
	assert.Equal(t, "Coffee\nElectronics", freightFirst.Get(ColCommodity))
	assert.Equal(t, "Ground Transportation\nInternational Freight", freightFirst.Get(ColService))
	assert.Equal(t, []enums.ServiceType{enums.ServiceInternationalFreight, enums.ServiceGroundTransportation}, freightFirst.Services)
}

func TestAggregatePackagesAndFlags(t *testing.T) {
	d := quotation.NewDetails(enums.ServiceInternationalFreight)
	d.Commodity = "Parts"
	d.Freight.TransportType = enums.TransportAir
	d.Freight.InsuranceRequired = true
	d.Freight.IMOCargo = true
	d.Freight.IMOType = "3"
	d.Freight.UNCode = "1263"
	d.Freight.Routes = []quotation.Route{
		{CountryOrigin: "CO", PortOrigin: "BOG", CountryDestination: "US", PortDestination: "MIA"},
		{CountryOrigin: "US", PortOrigin: "MIA", CountryDestination: "CA", PortDestination: "YYZ"},
	}
	d = quotation.Sanitize(d)
	d.Freight.Cargo.Packages = []quotation.Package{
		quotation.Package{PackagingType: enums.PackagingBox, Quantity: 2, WeightPerUnit: 5, WeightUnit: enums.WeightKG, Length: 50, Width: 40, Height: 30, LengthUnit: enums.LengthCM}.Recompute(enums.TransportAir),
	}
	entry := quotation.Entry{ServiceType: d.Service, Details: d}

	rec, err := Aggregate(meta(), []quotation.Entry{entry})
	require.NoError(t, err)

	assert.Equal(t, "Route 1: CO (BOG) → US (MIA)\nRoute 2: US (MIA) → CA (YYZ)", rec.Get(ColRoutesInfo))
	assert.Empty(t, rec.Get(ColCountryOrigin))
	assert.Equal(t, "Yes, IMO Type: 3, UN Code: 1263", rec.Get(ColIMO))
	assert.Equal(t, "Insurance Required", rec.Get(ColAdditionalCosts))
	assert.Equal(t,
		"Package 1: Type: Box, Quantity: 2, Unit Weight: 5.00 KG, Total Weight: 10.00 KG,Volume: 19.99 KVM, Dimensions: 50.00 CM x 40.00 CM x 30.00 CM\n"+
			"Total weight of all packages: 10.00 KG",
		rec.Get(ColInfoPallets))
	assert.Empty(t, rec.Get(ColModality))
}

func TestAggregateFlatRackAndCharacteristics(t *testing.T) {
	entry := fclEntry()
	fcl := entry.Details.Freight.FCL
	fcl.Containers = []enums.ContainerType{enums.ContainerFlatRack40, enums.ContainerReefer40}
	fcl.Reinforced = true
	fcl.Isotank = true
	fcl.ReeferType = enums.ReeferColdTreatment
	fcl.DrayageReefer = true
	fcl.FlatRacks = []quotation.FlatRack{{Weight: 1200, WeightUnit: enums.WeightKG, Length: 6, Width: 2.4, Height: 2.5, LengthUnit: enums.LengthM}}
	entry.Details.Freight.Temperature = "-18"

	rec, err := Aggregate(meta(), []quotation.Entry{entry})
	require.NoError(t, err)
	assert.Equal(t, "Reinforced\nIsotank", rec.Get(ColContainerCharacteristics))
	assert.Equal(t, "Weight: 1200.00 KG, Dimensions: 6.00 M x 2.40 M x 2.50 M", rec.Get(ColInfoFlatrack))
	assert.Equal(t, "Drayage Reefer Required\nReefer Container Type: Cold Treatment\nTemperature Range: -18°C", rec.Get(ColReeferDetails))
}

func TestAggregateLaterServicesKeepReeferAndCosts(t *testing.T) {
	reefer := fclEntry()
	reefer.Details.Freight.FCL.Containers = []enums.ContainerType{enums.ContainerReefer40}
	reefer.Details.Freight.FCL.DrayageReefer = true
	reefer.Details.Freight.InsuranceRequired = true

	c := quotation.NewDetails(enums.ServiceCustomsBrokerage)
	c.Commodity = "Flowers"
	c.Customs.CountryOrigin = "CO"
	customs := quotation.Entry{ID: "c", ServiceType: c.Service, Details: quotation.Sanitize(c)}

	rec, err := Aggregate(meta(), []quotation.Entry{reefer, customs})
	require.NoError(t, err)
	assert.Equal(t, "Drayage Reefer Required", rec.Get(ColReeferDetails))
	assert.Equal(t, "Insurance Required", rec.Get(ColAdditionalCosts))
}
