package mp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/warelink/mpbridge/pkg/carrier"
)

const maxProductNameLen = 75

// checkRequiredValue is the validation gate run before any network call.
// All violations are aggregated into a single human-readable message; a
// non-nil return means the request must not be sent.
func checkRequiredValue(cfg carrier.Config, recipient, shipper carrier.Party, order *carrier.OrderInfo) error {
	if cfg.Username == "" {
		return carrier.NewConfigError(carrierName,
			"MP username is missing, please modify your delivery method settings")
	}
	if cfg.Password == "" {
		return carrier.NewConfigError(carrierName,
			"MP password is missing, please modify your delivery method settings")
	}

	// The street isn't required when rating against a partial delivery
	// address from the express checkout flow.
	requireStreet := !cfg.AllowPartialRecipient
	if missing := missingPartyFields(recipient, requireStreet, false); len(missing) > 0 {
		return carrier.NewValidationError(carrierName, fmt.Sprintf(
			"the address of the customer is missing or wrong (missing field(s): %s)",
			strings.Join(missing, ", ")))
	}

	if missing := missingPartyFields(shipper, true, true); len(missing) > 0 {
		return carrier.NewValidationError(carrierName, fmt.Sprintf(
			"the address of your company warehouse is missing or wrong (missing field(s): %s)",
			strings.Join(missing, ", ")))
	}

	if order != nil {
		if len(order.Lines) == 0 {
			return carrier.NewValidationError(carrierName, "please provide at least one item to ship")
		}
		var weightless []string
		for _, line := range order.Lines {
			if line.IsDelivery || line.IsService || line.IsSection {
				continue
			}
			if line.UnitWeight == 0 {
				weightless = append(weightless, line.ProductName)
			}
		}
		if len(weightless) > 0 {
			return carrier.NewValidationError(carrierName, fmt.Sprintf(
				"the estimated shipping price cannot be computed because the weight is missing for the following product(s): %s",
				strings.Join(weightless, ", ")))
		}
	}

	return nil
}

// buildRate composes a rate request document. Only the shipping-method
// code, destination country, and converted total weight are sent.
func buildRate(cfg carrier.Config, destination carrier.Party, packages []carrier.Package) (Document, error) {
	payload := RatePayload{
		Action:         ActionRate,
		ShippingMethod: cfg.DefaultPackageCode,
		Country:        destination.CountryCode,
		TotalWeight:    totalWeight(cfg, packages),
	}

	doc, err := toDocument(payload)
	if err != nil {
		return nil, err
	}
	if err := applyCustomData(cfg, ActionRate, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// buildShipment composes a shipment or return document. For returns the
// consignor/consignee roles are already expected to be swapped by the
// caller, and an export declaration with the substituted return-invoice
// number is attached.
func buildShipment(action string, req *carrier.ShipmentRequest) (Document, error) {
	payload := ShipmentPayload{
		Action:         action,
		Warehouse:      req.Warehouse,
		ShippingMethod: req.Config.DefaultPackageCode,
		Consignee:      partyBlock(req.Consignee),
		Consignor:      partyBlock(req.Consignor),
		ReferenceNo:    req.Reference,
		Details:        shipmentDetails(req.Config, req.Packages),
	}

	if req.Label != nil {
		payload.FileBase64 = base64.StdEncoding.EncodeToString(req.Label.Data)
		payload.FileName = req.Label.Filename
	}

	if action == ActionReturn {
		decl, err := exportDeclaration(req)
		if err != nil {
			return nil, err
		}
		payload.ExportDeclaration = decl
	}

	doc, err := toDocument(payload)
	if err != nil {
		return nil, err
	}
	if err := applyCustomData(req.Config, action, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// exportDeclaration builds the customs section of a return request from the
// order lines. Quantities are rounded half-up with a floor of one piece.
func exportDeclaration(req *carrier.ShipmentRequest) (*ExportDeclaration, error) {
	decl := &ExportDeclaration{
		InvoiceDate:   time.Now().Format("2006-01-02"),
		InvoiceNumber: req.InvoiceNumber,
		ExportReason:  "RETURN",
	}
	if req.Order == nil {
		return decl, nil
	}
	decl.ReceiverReference = req.Order.ClientOrderRef

	sequence := 0
	for _, line := range req.Order.Lines {
		if line.IsDelivery || line.IsService || line.IsSection {
			continue
		}
		if len(line.ProductName) > maxProductNameLen {
			return nil, carrier.NewValidationError(carrierName,
				"MP doesn't support products with name greater than 75 characters")
		}

		sequence++
		qty := int(math.Max(1, roundHalfUp(line.Quantity, 0)))
		unitValue := line.UnitPrice * line.Quantity / float64(qty)
		weight := WeightBlock{
			Weight:     formatWeight(line.UnitWeight, req.Config.WeightUnit),
			WeightUnit: wireWeightUnit(req.Config.WeightUnit),
		}

		item := ExportLineItem{
			LineNumber:   sequence,
			Quantity:     qty,
			QuantityUnit: "PCS", // pieces, deliberately generic
			Description:  line.ProductName,
			Value:        strconv.FormatFloat(roundHalfUp(unitValue, 2), 'f', 2, 64),
			Weight:       weight,
			GrossWeight:  weight,
		}
		item.ManufactureCountryCode = line.OriginCode
		if item.ManufactureCountryCode == "" {
			item.ManufactureCountryCode = req.Consignee.CountryCode
		}
		if line.HSCode != "" {
			item.CommodityCode = line.HSCode
			item.ImportCommodityCode = line.HSCode
		}
		decl.LineItems = append(decl.LineItems, item)
	}

	return decl, nil
}

// toDocument converts a typed payload into the generic JSON-like document
// the custom-data overlay merges into.
func toDocument(payload any) (Document, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, carrier.NewConfigError(carrierName, "failed to encode request").WithCause(err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, carrier.NewConfigError(carrierName, "failed to encode request").WithCause(err)
	}
	return doc, nil
}
