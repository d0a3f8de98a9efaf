package mp

import (
	"math"
	"strconv"

	"github.com/warelink/mpbridge/pkg/carrier"
)

const lbToKg = 0.45359237

// partyBlock normalizes a partner-like record into the provider's address
// schema. Street2 is promoted to line 1 when line 1 is empty; line 2 is
// explicitly null when unused, matching the endpoint's expectations.
func partyBlock(p carrier.Party) PartyBlock {
	company := p.Company
	if company == "" {
		company = p.Name
	}

	line1 := p.Street
	if line1 == "" {
		line1 = p.Street2
	}

	var line2 *string
	if p.Street != "" && p.Street2 != "" {
		s := p.Street2
		line2 = &s
	}

	block := PartyBlock{
		CompanyName:  company,
		AddressLine1: line1,
		AddressLine2: line2,
		City:         p.City,
		PostalCode:   p.Zip,
		CountryCode:  p.CountryCode,
		CountryName:  p.CountryName,
		PersonName:   p.Name,
		PhoneNumber:  p.Phone,
	}
	if p.RegionName != "" || p.RegionCode != "" {
		block.Division = p.RegionName
		block.DivisionCode = p.RegionCode
	}
	if p.Email != "" {
		block.Email = p.Email
	}
	return block
}

// convertWeight converts a weight in the configured unit to kilograms,
// rounded half-up to 3 decimal digits. Dimensions are never converted; the
// design assumes source and provider dimension units are aligned by
// configuration.
func convertWeight(weight float64, unit carrier.WeightUnit) float64 {
	if unit == carrier.WeightLB {
		weight *= lbToKg
	}
	return roundHalfUp(weight, 3)
}

// formatWeight renders a converted weight with 3-decimal precision.
func formatWeight(weight float64, unit carrier.WeightUnit) string {
	return strconv.FormatFloat(convertWeight(weight, unit), 'f', 3, 64)
}

func roundHalfUp(v float64, digits int) float64 {
	shift := math.Pow(10, float64(digits))
	return math.Floor(v*shift+0.5) / shift
}

// wireWeightUnit maps the configured unit to the provider tag.
func wireWeightUnit(u carrier.WeightUnit) string {
	if u == carrier.WeightLB {
		return "LB"
	}
	return "KG"
}

// wireDimensionUnit maps the configured unit to the provider tag.
func wireDimensionUnit(u carrier.DimensionUnit) string {
	if u == carrier.DimensionIN {
		return "IN"
	}
	return "CM"
}

// missingPartyFields returns the human-readable names of required fields
// absent from a party record.
func missingPartyFields(p carrier.Party, requireStreet, requirePhone bool) []string {
	var missing []string
	if requireStreet && p.Street == "" && p.Street2 == "" {
		missing = append(missing, "street")
	}
	if p.City == "" {
		missing = append(missing, "city")
	}
	if p.Zip == "" {
		missing = append(missing, "zip")
	}
	if requirePhone && p.Phone == "" {
		missing = append(missing, "phone")
	}
	if p.CountryCode == "" {
		missing = append(missing, "country")
	}
	return missing
}
