package submission

import (
	"strings"

	"github.com/angelmondragon/freightquote-backend/internal/aggregate"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/samber/lo"
)

const domesticCountry = "united states"

// Worksheets returns the worksheets a record is appended to. Ground quotations
// inside the United States have their own worksheet; they are also copied to
// the general one when the quotation mixes service types.
func Worksheets(record aggregate.Record, allQuotes, ground string) []string {
	if !isDomesticGround(record) {
		return []string{allQuotes}
	}
	if len(record.Services) > 1 {
		return []string{allQuotes, ground}
	}
	return []string{ground}
}

func isDomesticGround(record aggregate.Record) bool {
	if !lo.Contains(record.Services, enums.ServiceGroundTransportation) {
		return false
	}
	return isDomestic(record.Get(aggregate.ColCountryOrigin)) &&
		isDomestic(record.Get(aggregate.ColCountryDestination))
}

func isDomestic(country string) bool {
	return strings.EqualFold(strings.TrimSpace(country), domesticCountry)
}

// Headers upper-cases column names for a newly created worksheet.
func Headers(columns []string) []string {
	return lo.Map(columns, func(col string, _ int) string { return strings.ToUpper(col) })
}
