// Package carrier provides the delivery-carrier abstraction the shipping
// dispatcher routes through. Each variant is selected by its delivery-type tag.
package carrier

import (
	"context"
)

// Carrier defines the operations every delivery-carrier variant must implement.
type Carrier interface {
	// Name returns the human-readable carrier identifier (e.g., "mp").
	Name() string

	// DeliveryType returns the discriminant tag used for dispatch.
	DeliveryType() string

	// RateShipment returns the shipping price for an order.
	RateShipment(ctx context.Context, req *RateRequest) (*RateResult, error)

	// SendShipping registers a shipment with the provider and returns the
	// assigned tracking number.
	SendShipping(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)

	// SendReturn registers a return shipment. Consignor and consignee roles
	// are the forward ones; the variant is responsible for reversing them.
	SendReturn(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error)

	// CancelShipment cancels a previously created shipment.
	CancelShipment(ctx context.Context, trackingRef string) error

	// TrackingLink returns a customer-facing tracking URL for a tracking
	// reference, or "" if the variant has none.
	TrackingLink(trackingRef string) string
}
