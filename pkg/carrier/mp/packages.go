package mp

import (
	"strconv"

	"github.com/warelink/mpbridge/pkg/carrier"
)

// shipmentDetails aggregates an externally supplied package partition into
// the provider's details block. The total accumulates the converted
// per-package weights, not the raw values, so mixed-unit inputs can never
// double-count.
func shipmentDetails(cfg carrier.Config, packages []carrier.Package) ShipmentDetails {
	infos := make([]PackageInfo, 0, len(packages))
	total := 0.0

	for _, pkg := range packages {
		converted := convertWeight(pkg.Weight, cfg.WeightUnit)
		goods := make([]GoodsItem, 0, len(pkg.Commodities))
		for _, c := range pkg.Commodities {
			goods = append(goods, GoodsItem{
				Name:     c.Name,
				Quantity: c.Quantity,
				Code:     c.Code,
				Weight:   c.UnitWeight,
			})
		}
		infos = append(infos, PackageInfo{
			Height: pkg.Height,
			Depth:  pkg.Length,
			Width:  pkg.Width,
			Weight: strconv.FormatFloat(converted, 'f', 3, 64),
			Goods:  goods,
		})
		total = roundHalfUp(total+converted, 3)
	}

	details := ShipmentDetails{
		TotalWeight:   total,
		WeightUnit:    wireWeightUnit(cfg.WeightUnit),
		DimensionUnit: wireDimensionUnit(cfg.DimensionUnit),
		PackageInfos:  infos,
	}
	if cfg.InsurancePercent > 0 && len(packages) > 0 {
		details.InsuredValue = insuredValue(packages, cfg.InsurancePercent)
		details.InsuredCurrency = declaredCurrency(packages)
	}
	return details
}

// totalWeight sums the converted weights of a package partition.
func totalWeight(cfg carrier.Config, packages []carrier.Package) float64 {
	total := 0.0
	for _, pkg := range packages {
		total = roundHalfUp(total+convertWeight(pkg.Weight, cfg.WeightUnit), 3)
	}
	return total
}

// insuredValue computes sum(value) * insurance% / 100 with 3-decimal
// formatting.
func insuredValue(packages []carrier.Package, percent float64) string {
	sum := 0.0
	for _, pkg := range packages {
		sum += pkg.Value
	}
	return strconv.FormatFloat(roundHalfUp(sum*percent/100, 3), 'f', 3, 64)
}

// declaredCurrency is taken from the first package. All packages in one
// request are assumed to share currency; this is not enforced here.
func declaredCurrency(packages []carrier.Package) string {
	if len(packages) == 0 {
		return ""
	}
	return packages[0].Currency
}
