// Package mock provides a mock carrier variant for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/warelink/mpbridge/pkg/carrier"
)

// Client is a mock carrier variant for testing dispatch and the registry.
type Client struct {
	name         string
	deliveryType string
}

// New creates a new mock carrier registered under the given tag.
func New(name, deliveryType string) *Client {
	return &Client{name: name, deliveryType: deliveryType}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return c.name
}

// DeliveryType returns the dispatch tag.
func (c *Client) DeliveryType() string {
	return c.deliveryType
}

// RateShipment returns a fixed mock price.
func (c *Client) RateShipment(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResult, error) {
	return &carrier.RateResult{
		Success: true,
		Price:   15.82,
	}, nil
}

// SendShipping returns a mock tracking number.
func (c *Client) SendShipping(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	return &carrier.ShipmentResult{
		TrackingNumber: fmt.Sprintf("%s-%d", c.name, time.Now().UnixNano()),
	}, nil
}

// SendReturn returns a mock tracking number for a return.
func (c *Client) SendReturn(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	return &carrier.ShipmentResult{
		TrackingNumber: fmt.Sprintf("%s-ret-%d", c.name, time.Now().UnixNano()),
	}, nil
}

// CancelShipment always succeeds.
func (c *Client) CancelShipment(ctx context.Context, trackingRef string) error {
	return nil
}

// TrackingLink returns a mock tracking URL.
func (c *Client) TrackingLink(trackingRef string) string {
	return fmt.Sprintf("https://track.example.com/%s/%s", c.name, trackingRef)
}

// Ensure Client implements the carrier interface
var _ carrier.Carrier = (*Client)(nil)
