package fields

import (
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

// Tier is how strongly a field is demanded once it applies.
type Tier string

const (
	TierRequired            Tier = "required"
	TierRequiredConditional Tier = "required-conditional"
	TierOptional            Tier = "optional"
)

// Kind hints the input control a renderer should use.
type Kind string

const (
	KindText        Kind = "text"
	KindTextArea    Kind = "textarea"
	KindNumber      Kind = "number"
	KindBool        Kind = "bool"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindFiles       Kind = "files"
	KindRows        Kind = "rows"
)

// Selection is the set of choices that decide which fields exist.
type Selection struct {
	Service   enums.ServiceType   `json:"service"`
	Transport enums.TransportType `json:"transport_type,omitempty"`
	Modality  enums.Modality      `json:"modality,omitempty"`
	Incoterm  enums.Incoterm      `json:"incoterm,omitempty"`
}

func (s Selection) freight() bool { return s.Service == enums.ServiceInternationalFreight }
func (s Selection) ground() bool  { return s.Service == enums.ServiceGroundTransportation }
func (s Selection) customs() bool { return s.Service == enums.ServiceCustomsBrokerage }
func (s Selection) air() bool     { return s.freight() && s.Transport == enums.TransportAir }

func (s Selection) maritime() bool {
	return s.freight() && s.Transport == enums.TransportMaritime
}

func (s Selection) fcl() bool {
	return s.maritime() && s.Modality == enums.ModalityFCL
}

// looseCargo covers LCL maritime and every air shipment.
func (s Selection) looseCargo() bool {
	return s.air() || (s.maritime() && s.Modality == enums.ModalityLCL)
}

// Conditions are draft answers that switch conditional fields on.
type Conditions struct {
	IMOCargo           bool `json:"imo_cargo"`
	Tank               bool `json:"tank"`
	FlatRack           bool `json:"flat_rack"`
	InYard             bool `json:"in_yard"`
	Insurance          bool `json:"insurance"`
	CustomsOrigin      bool `json:"customs_origin"`
	TemperatureControl bool `json:"temperature_control"`
	Reefer             bool `json:"reefer"`
	Reefer40           bool `json:"reefer_40"`
	RefrigeratedGround bool `json:"refrigerated_ground"`
	LTL                bool `json:"ltl"`
}

// Field is a resolved question for a selection.
type Field struct {
	Key      Key      `json:"key"`
	Label    string   `json:"label"`
	Kind     Kind     `json:"kind"`
	Tier     Tier     `json:"tier"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// Group is an ordered block of fields rendered together.
type Group struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

type predicate func(Selection, Conditions) bool

type entry struct {
	key     Key
	label   string
	kind    Kind
	options []string
	// scope decides allowlist membership and ignores incoterm and answers.
	scope func(Selection) bool
	tier  func(Selection) Tier
	// when decides whether the field is shown; nil means always.
	when predicate
	// demand decides whether a required-conditional field is currently required.
	demand predicate
}

type groupSpec struct {
	name  string
	specs []entry
}

func always(Selection) bool { return true }

func fixed(t Tier) func(Selection) Tier {
	return func(Selection) Tier { return t }
}

func byIncoterm(required []enums.Incoterm, otherwise Tier) func(Selection) Tier {
	return func(s Selection) Tier {
		if s.Incoterm.In(required...) {
			return TierRequired
		}
		return otherwise
	}
}

func incotermIn(terms ...enums.Incoterm) predicate {
	return func(s Selection, _ Conditions) bool { return s.Incoterm.In(terms...) }
}

func on(flag func(Conditions) bool) predicate {
	return func(_ Selection, c Conditions) bool { return flag(c) }
}

var (
	originTerms      = []enums.Incoterm{enums.IncotermFCA, enums.IncotermEXW, enums.IncotermDDP, enums.IncotermDAP}
	doorTerms        = []enums.Incoterm{enums.IncotermEXW, enums.IncotermDDP, enums.IncotermDAP}
	destinationTerms = []enums.Incoterm{enums.IncotermEXW, enums.IncotermDDP, enums.IncotermDAP, enums.IncotermCIF, enums.IncotermCFR, enums.IncotermCPT}
)

var containerOptions = []enums.ContainerType{
	enums.Container20Dry,
	enums.Container40Dry,
	enums.Container40HighCube,
	enums.ContainerReefer20,
	enums.ContainerReefer40,
	enums.ContainerOpenTop20,
	enums.ContainerOpenTop40,
	enums.ContainerFlatRack20,
	enums.ContainerFlatRack40,
}

var groundServiceOptions = []enums.GroundService{
	enums.GroundDrayage20STD,
	enums.GroundDrayage40STDHC,
	enums.GroundDryvan,
	enums.GroundFTL53,
	enums.GroundFlatBed,
	enums.GroundBoxTruck,
	enums.GroundDrayageReefer20STD,
	enums.GroundDrayageReefer40STD,
	enums.GroundTractomula,
	enums.GroundMulaRefrigerada,
	enums.GroundLTL,
}

func stringsOf[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

var yesNo = []string{"Yes", "No"}

func imoSpecs(scope func(Selection) bool) []entry {
	imo := on(func(c Conditions) bool { return c.IMOCargo })
	return []entry{
		{key: KeyIMOCargo, label: "IMO", kind: KindBool, scope: scope, tier: fixed(TierOptional)},
		{key: KeyIMOType, label: "IMO type", kind: KindText, scope: scope, tier: fixed(TierRequiredConditional), when: imo, demand: imo},
		{key: KeyUNCode, label: "UN Code", kind: KindText, scope: scope, tier: fixed(TierRequiredConditional), when: imo, demand: imo},
		{key: KeyMSDSFiles, label: "Attach MSDS", kind: KindFiles, scope: scope, tier: fixed(TierRequiredConditional), when: imo, demand: imo},
	}
}

func finalGroup() groupSpec {
	return groupSpec{name: "Final Details", specs: []entry{
		{key: KeyVolumeQuantity, label: "Quantity", kind: KindNumber, scope: always, tier: fixed(TierOptional)},
		{key: KeyVolumeFrequency, label: "Frequency", kind: KindSelect, options: []string{string(enums.FrequencyWeekly), string(enums.FrequencyMonthly)}, scope: always, tier: fixed(TierOptional)},
		{key: KeyFinalComments, label: "Final Comments", kind: KindTextArea, scope: always, tier: fixed(TierOptional)},
		{key: KeyAdditionalDocuments, label: "Attach Additional Documents", kind: KindFiles, scope: always, tier: fixed(TierOptional)},
	}}
}

// customsDocsShown reveals the customs document block: always for door terms,
// for FCA once customs at origin is quoted.
func customsDocsShown(s Selection, c Conditions) bool {
	if s.Incoterm.In(doorTerms...) {
		return true
	}
	return s.Incoterm == enums.IncotermFCA && c.CustomsOrigin
}

// invoicesShown extends the customs block with insured shipments on the remaining terms.
func invoicesShown(s Selection, c Conditions) bool {
	if customsDocsShown(s, c) {
		return true
	}
	return c.Insurance && !s.Incoterm.In(originTerms...)
}

func cargoValueDemanded(s Selection, c Conditions) bool {
	if s.Incoterm == enums.IncotermFCA {
		return c.CustomsOrigin || c.Insurance
	}
	return c.Insurance
}

func freightGroups() []groupSpec {
	freight := Selection.freight
	fcl := Selection.fcl
	loose := Selection.looseCargo
	reefer := on(func(c Conditions) bool { return c.Reefer })

	cargo := []entry{
		{key: KeyIncoterm, label: "Select Incoterm", kind: KindSelect, options: stringsOf(enums.Incoterms()), scope: freight, tier: fixed(TierRequired)},
		{key: KeyRoutes, label: "Routes", kind: KindRows, scope: freight, tier: fixed(TierRequired)},
		{key: KeyCommodity, label: "Commodity", kind: KindText, scope: always, tier: fixed(TierRequired)},
	}
	cargo = append(cargo, imoSpecs(freight)...)
	cargo = append(cargo,
		entry{key: KeyHSCode, label: "HS Code", kind: KindText, scope: always,
			tier: byIncoterm([]enums.Incoterm{enums.IncotermFCA, enums.IncotermEXW, enums.IncotermDDP}, TierOptional)},
		entry{key: KeyPickupAddress, label: "Pickup Address", kind: KindText, scope: freight,
			tier: byIncoterm([]enums.Incoterm{enums.IncotermEXW, enums.IncotermDDP}, TierOptional),
			when: incotermIn(enums.IncotermFCA, enums.IncotermEXW, enums.IncotermDDP)},
		entry{key: KeyZipCodeOrigin, label: "Zip Code City of Origin", kind: KindText, scope: freight, tier: fixed(TierOptional), when: incotermIn(originTerms...)},
		entry{key: KeyCustomsOrigin, label: "Quote customs at origin", kind: KindBool, scope: freight, tier: fixed(TierOptional), when: incotermIn(enums.IncotermFCA)},
		entry{key: KeyDeliveryAddress, label: "Delivery Address", kind: KindText, scope: freight,
			tier: byIncoterm([]enums.Incoterm{enums.IncotermDDP, enums.IncotermDAP}, TierOptional),
			when: incotermIn(doorTerms...)},
		entry{key: KeyZipCodeDestination, label: "Zip Code City of Destination", kind: KindText, scope: freight, tier: fixed(TierOptional), when: incotermIn(doorTerms...)},
		entry{key: KeyCargoValue, label: "Cargo Value (USD)", kind: KindNumber, scope: always,
			tier: byIncoterm(doorTerms, TierRequiredConditional),
			when: func(s Selection, c Conditions) bool {
				return s.Incoterm.In(doorTerms...) || cargoValueDemanded(s, c)
			},
			demand: cargoValueDemanded},
		entry{key: KeyCommercialInvoices, label: "Attach Commercial Invoices", kind: KindFiles, scope: always, tier: fixed(TierOptional), when: invoicesShown},
		entry{key: KeyPackingLists, label: "Attach Packing Lists", kind: KindFiles, scope: always, tier: fixed(TierOptional), when: customsDocsShown},
		entry{key: KeyWeight, label: "Total Weight", kind: KindNumber, scope: always, tier: fixed(TierOptional),
			when: func(s Selection, c Conditions) bool { return !s.air() && customsDocsShown(s, c) }},
		entry{key: KeyOriginCertificates, label: "Certificate of Origin", kind: KindFiles, scope: always, tier: fixed(TierOptional), when: customsDocsShown},
		entry{key: KeyDestinationCost, label: "Quote surcharges at destination", kind: KindBool, scope: freight, tier: fixed(TierOptional), when: incotermIn(destinationTerms...)},
		entry{key: KeyInsuranceRequired, label: "Insurance Required", kind: KindBool, scope: freight, tier: fixed(TierOptional)},
	)

	transport := []entry{
		{key: KeyTypeContainer, label: "Type of container", kind: KindMultiSelect, options: stringsOf(containerOptions), scope: fcl, tier: fixed(TierRequired)},
		{key: KeyFlatRack, label: "Flat Rack dimensions", kind: KindRows, scope: fcl, tier: fixed(TierRequiredConditional),
			when: on(func(c Conditions) bool { return c.FlatRack }), demand: on(func(c Conditions) bool { return c.FlatRack })},
		{key: KeyReinforced, label: "Reinforced", kind: KindBool, scope: fcl, tier: fixed(TierOptional)},
		{key: KeyFoodGrade, label: "Foodgrade", kind: KindBool, scope: fcl, tier: fixed(TierOptional)},
		{key: KeyIsotank, label: "Isotank", kind: KindBool, scope: fcl, tier: fixed(TierOptional)},
		{key: KeyFlexitank, label: "Flexitank", kind: KindBool, scope: fcl, tier: fixed(TierOptional)},
		// IMO cargo already asks for an MSDS, so the tank copy is hidden then.
		{key: KeyTankMSDSFiles, label: "Attach Safety Sheet or MSDS", kind: KindFiles, scope: fcl, tier: fixed(TierRequiredConditional),
			when:   on(func(c Conditions) bool { return c.Tank && !c.IMOCargo }),
			demand: on(func(c Conditions) bool { return c.Tank })},
		{key: KeyTechnicalSheets, label: "Attach Technical Sheets", kind: KindFiles, scope: fcl, tier: fixed(TierRequiredConditional),
			when: on(func(c Conditions) bool { return c.Tank }), demand: on(func(c Conditions) bool { return c.Tank })},
		{key: KeyPositioning, label: "Container Positioning", kind: KindSelect, options: []string{string(enums.PositioningInYard), string(enums.PositioningAtPort), string(enums.PositioningNotApplicable)}, scope: fcl, tier: fixed(TierOptional)},
		{key: KeyPickupCity, label: "Pick up City", kind: KindText, scope: fcl, tier: fixed(TierRequiredConditional),
			when: on(func(c Conditions) bool { return c.InYard }), demand: on(func(c Conditions) bool { return c.InYard })},
		{key: KeyLCLFCLMode, label: "LCL - FCL", kind: KindBool, scope: fcl, tier: fixed(TierOptional)},
		{key: KeyReeferType, label: "Reefer type", kind: KindSelect, options: []string{string(enums.ReeferControlledAtmosphere), string(enums.ReeferColdTreatment), string(enums.ReeferOperating)}, scope: fcl, tier: fixed(TierOptional),
			when: on(func(c Conditions) bool { return c.Reefer40 })},
		{key: KeyTemperature, label: "Temperature range °C", kind: KindText, scope: fcl, tier: fixed(TierOptional), when: reefer},
		{key: KeyPickupThermoKing, label: "Thermo King Pick up", kind: KindBool, scope: fcl, tier: fixed(TierOptional),
			when: func(s Selection, c Conditions) bool { return c.Reefer && s.Incoterm.In(doorTerms...) }},
		{key: KeyDrayageReefer, label: "Drayage Reefer", kind: KindBool, scope: fcl, tier: fixed(TierOptional),
			when: func(s Selection, c Conditions) bool { return c.Reefer && s.Incoterm.In(doorTerms...) }},

		{key: KeyPackages, label: "Packages", kind: KindRows, scope: loose, tier: fixed(TierRequired)},
		{key: KeyTemperatureControl, label: "Temperature control required", kind: KindBool, scope: loose, tier: fixed(TierOptional),
			when: func(s Selection, _ Conditions) bool { return s.air() }},
		{key: KeyTemperature, label: "Temperature range °C", kind: KindText, scope: Selection.air, tier: fixed(TierOptional),
			when: on(func(c Conditions) bool { return c.TemperatureControl })},
		{key: KeyStackable, label: "Stackable", kind: KindSelect, options: yesNo, scope: loose, tier: fixed(TierOptional)},
		{key: KeyLCLDescription, label: "Relevant Information", kind: KindTextArea, scope: loose, tier: fixed(TierOptional)},
	}

	return []groupSpec{
		{name: "Service", specs: []entry{
			{key: KeyTransportType, label: "Transport Type", kind: KindSelect, options: []string{string(enums.TransportMaritime), string(enums.TransportAir)}, scope: freight, tier: fixed(TierRequired)},
			{key: KeyModality, label: "Modality", kind: KindSelect, options: []string{string(enums.ModalityFCL), string(enums.ModalityLCL)}, scope: Selection.maritime, tier: fixed(TierRequired)},
		}},
		{name: "Cargo Details", specs: cargo},
		{name: "Transportation Details", specs: transport},
		finalGroup(),
	}
}

func groundGroups() []groupSpec {
	ground := Selection.ground
	ltl := on(func(c Conditions) bool { return c.LTL })
	cargo := []entry{
		{key: KeyGroundRoutes, label: "Routes", kind: KindRows, scope: ground, tier: fixed(TierRequired)},
		{key: KeyCommodity, label: "Commodity", kind: KindText, scope: always, tier: fixed(TierRequired)},
		{key: KeyHSCode, label: "HS Code", kind: KindText, scope: always, tier: fixed(TierOptional)},
	}
	cargo = append(cargo, imoSpecs(ground)...)
	cargo = append(cargo,
		entry{key: KeyCargoValue, label: "Cargo Value (USD)", kind: KindNumber, scope: always, tier: fixed(TierRequired)},
		entry{key: KeyWeight, label: "Total Weight", kind: KindNumber, scope: always, tier: fixed(TierRequired)},
		entry{key: KeyGroundService, label: "Select Ground Service", kind: KindSelect, options: stringsOf(groundServiceOptions), scope: ground, tier: fixed(TierRequired)},
		entry{key: KeyTemperature, label: "Temperature range °C", kind: KindText, scope: ground, tier: fixed(TierOptional),
			when: on(func(c Conditions) bool { return c.RefrigeratedGround })},
		entry{key: KeyPackages, label: "Packages", kind: KindRows, scope: ground, tier: fixed(TierOptional), when: ltl},
		entry{key: KeyStackable, label: "Stackable", kind: KindSelect, options: yesNo, scope: ground, tier: fixed(TierOptional), when: ltl},
		entry{key: KeyLCLDescription, label: "Relevant Information", kind: KindTextArea, scope: ground, tier: fixed(TierOptional), when: ltl},
	)
	return []groupSpec{
		{name: "Cargo Details", specs: cargo},
		finalGroup(),
	}
}

func customsGroups() []groupSpec {
	customs := Selection.customs
	details := []entry{
		{key: KeyCountryOrigin, label: "Country of Origin", kind: KindSelect, scope: customs, tier: fixed(TierRequired)},
		{key: KeyCountryDestination, label: "Country of Destination", kind: KindSelect, scope: customs, tier: fixed(TierRequired)},
		{key: KeyCommodity, label: "Commodity", kind: KindText, scope: always, tier: fixed(TierRequired)},
		{key: KeyHSCode, label: "HS Code", kind: KindText, scope: always, tier: fixed(TierRequired)},
	}
	details = append(details, imoSpecs(customs)...)
	details = append(details,
		entry{key: KeyCargoValue, label: "Cargo Value (USD)", kind: KindNumber, scope: always, tier: fixed(TierRequired)},
		entry{key: KeyPackages, label: "Packages", kind: KindRows, scope: customs, tier: fixed(TierOptional)},
		entry{key: KeyCommercialInvoices, label: "Attach Commercial Invoices", kind: KindFiles, scope: customs, tier: fixed(TierOptional)},
		entry{key: KeyPackingLists, label: "Attach Packing Lists", kind: KindFiles, scope: customs, tier: fixed(TierOptional)},
		entry{key: KeyOriginCertificates, label: "Certificate of Origin", kind: KindFiles, scope: customs, tier: fixed(TierOptional)},
	)
	return []groupSpec{
		{name: "Customs Details", specs: details},
		finalGroup(),
	}
}

var catalog = map[enums.ServiceType][]groupSpec{
	enums.ServiceInternationalFreight: freightGroups(),
	enums.ServiceGroundTransportation: groundGroups(),
	enums.ServiceCustomsBrokerage:     customsGroups(),
}
