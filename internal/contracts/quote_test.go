package contracts

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func maerskContract(t *testing.T) Contract {
	t.Helper()
	ct, ok := fixtureCatalog().Find(Filter{POL: "Cartagena", POD: "Rotterdam"}, "MAERSK", "C-100", testNow, time.UTC)
	require.True(t, ok)
	return ct
}

func validRequest() QuoteRequest {
	return QuoteRequest{
		POL: "Cartagena", POD: "Rotterdam", Line: "MAERSK", ContractID: "C-100",
		Client:     "Acme",
		Incoterm:   enums.IncotermFOB,
		CargoTypes: []string{"40HC", "20DC"},
		Surcharges: []string{"Flete", "Origen"},
		Sales: map[string]map[string]decimal.Decimal{
			"Origen": {"20DC": dec("200"), "40HC": dec("220")},
			"Flete":  {"20DC": dec("1400"), "40HC": dec("2300")},
		},
	}
}

func TestValidateMessagesInOrder(t *testing.T) {
	errs := QuoteRequest{Incoterm: enums.IncotermCIF}.Validate()
	assert.Equal(t, []string{MsgClientRequired, MsgContainerRequired, MsgCargoValue, MsgSurchargeRequired}, errs.Messages())

	req := validRequest()
	require.Empty(t, req.Validate())

	req.Sales["Flete"]["40HC"] = decimal.Zero
	assert.Equal(t, []string{MsgSalesPositive}, req.Validate().Messages())

	req = validRequest()
	delete(req.Sales, "Origen")
	assert.Equal(t, []string{MsgSalesPositive}, req.Validate().Messages(), "missing sale counts as zero")

	req = validRequest()
	req.Incoterm = enums.IncotermEXW
	assert.Equal(t, []string{MsgInvalidIncoterm}, req.Validate().Messages())
}

func TestCargoValueOnlyRequiredForCIF(t *testing.T) {
	req := validRequest()
	req.Incoterm = enums.IncotermCFR
	assert.Empty(t, req.Validate())

	req.Incoterm = enums.IncotermCIF
	assert.Equal(t, []string{MsgCargoValue}, req.Validate().Messages())
}

func TestInsurance(t *testing.T) {
	assert.True(t, Insurance(dec("10000")).Equal(dec("13.52")))
	assert.True(t, Insurance(dec("12345.67")).Equal(dec("16.69")))
}

func TestPriceQuoteTotals(t *testing.T) {
	req := validRequest()
	req.Additional = []AdditionalSurcharge{
		{Concept: "Fumigation", Cost: dec("40"), Sale: dec("60")},
		{Concept: "  ", Cost: dec("5"), Sale: dec("5")},
	}
	q := PriceQuote(req, maerskContract(t))

	require.Len(t, q.Lines, 4)
	assert.Equal(t, "Origen", q.Lines[0].Concept, "table order, not selection order")
	assert.Equal(t, "40HC", q.Lines[0].Container, "request container order")
	assert.True(t, q.Lines[3].Cost.Equal(dec("1200.50")))

	require.Len(t, q.Additional, 1)
	// costs 180+150+2000+1200.50+40, sales 220+200+2300+1400+60
	assert.True(t, q.TotalCost.Equal(dec("3570.50")), q.TotalCost.String())
	assert.True(t, q.TotalSale.Equal(dec("4180")), q.TotalSale.String())
	assert.True(t, q.Profit().Equal(dec("609.50")))
}

func TestPriceQuoteAddsInsuranceForCIF(t *testing.T) {
	req := validRequest()
	req.Incoterm = enums.IncotermCIF
	req.CargoValue = dec("10000")
	q := PriceQuote(req, maerskContract(t))

	require.Len(t, q.Additional, 1)
	assert.Equal(t, "Insurance", q.Additional[0].Concept)
	assert.True(t, q.Additional[0].Cost.Equal(dec("13.52")))
	assert.True(t, q.Additional[0].Sale.Equal(dec("13.52")))
}

func TestRowFormatsCells(t *testing.T) {
	req := validRequest()
	req.Additional = []AdditionalSurcharge{{Concept: "Fumigation", Cost: dec("40"), Sale: dec("60")}}
	q := PriceQuote(req, maerskContract(t))
	bogota, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	row := Row("Q0007", "Ana Perez", q, testNow, bogota)
	require.Len(t, row, len(Headers))
	m := RowMap(row)

	assert.Equal(t, "Q0007", m["Cotización ID"])
	assert.Equal(t, "2026-03-01 07:00:00", m["Time"])
	assert.Equal(t, "Coffee", m["Commodity"])
	assert.Equal(t, "40HC\n20DC", m["Cargo Types"])
	assert.Equal(t, "0.00", m["Cargo Value"])
	assert.Equal(t, "Origen 40HC: $180.00", strings.Split(m["Surcharges (Costos)"], "\n")[0])
	assert.Equal(t, "Flete 20DC: $1400.00", strings.Split(m["Surcharges (Ventas)"], "\n")[3])
	assert.Equal(t, "Fumigation: $40.00", m["Additional Surcharges (Costos)"])
	assert.Equal(t, "Fumigation: $60.00", m["Additional Surcharges (Ventas)"])
	assert.Equal(t, "$3570.50", m["Total Cost"])
	assert.Equal(t, "$4180.00", m["Total Sale"])
	assert.Equal(t, "$609.50", m["Total Profit"])
}
