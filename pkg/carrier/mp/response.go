package mp

import (
	"encoding/base64"

	"github.com/warelink/mpbridge/pkg/carrier"
)

// interpretRate extracts the price from a rate response. Exactly one branch
// executes: a status-200 body yields a price, anything else yields the msg
// field as the error message.
func interpretRate(resp *Response) (*carrier.RateResult, error) {
	if resp.Status != 200 {
		return &carrier.RateResult{
			Success:      false,
			Price:        0.0,
			ErrorMessage: resp.Msg,
		}, nil
	}

	if resp.Data == nil || resp.Data.Price == nil {
		return nil, carrier.NewDataIntegrityError(carrierName, "rate response is missing the price field")
	}

	return &carrier.RateResult{
		Success: true,
		Price:   *resp.Data.Price,
	}, nil
}

// interpretShipment extracts the tracking number (and the label bytes, when
// the provider returns one) from a shipment response.
func interpretShipment(resp *Response) (*carrier.ShipmentResult, error) {
	if resp.Status != 200 {
		return nil, carrier.NewTransportError(carrierName, resp.Msg).WithStatusCode(resp.Status)
	}

	if resp.Data == nil || resp.Data.TrackingNumber == nil {
		return nil, carrier.NewDataIntegrityError(carrierName, "shipment response is missing the tracking number")
	}

	result := &carrier.ShipmentResult{
		TrackingNumber: *resp.Data.TrackingNumber,
	}

	if resp.Data.Label != nil && *resp.Data.Label != "" {
		raw, err := base64.StdEncoding.DecodeString(*resp.Data.Label)
		if err != nil {
			return nil, carrier.NewDataIntegrityError(carrierName, "label in response is not valid base64").WithCause(err)
		}
		result.Label = raw
	}

	return result, nil
}
