// Package mp provides the MP logistics-center carrier variant. It assembles
// the provider's request payloads from order, address, and package data,
// performs the authenticated HTTP exchange, and interprets the response.
package mp

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/pkg/carrier"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	carrierName  = "mp"
	deliveryType = "mp"

	trackingURLTemplate = "http://www.dhl.com/en/express/tracking.html?AWB=%s"
)

// Config holds MP endpoint configuration. Credentials are not here: they
// belong to the per-method carrier.Config owned by the host application.
type Config struct {
	EndpointURL string
	Timeout     time.Duration
	UseMock     bool // when true, uses the mock API client
}

// Client is the MP carrier variant. It implements the carrier.Carrier
// interface and delegates the wire exchange to the underlying APIClient.
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new MP client. If cfg.UseMock is true, it uses a mock API
// client; otherwise the real HTTP client.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			EndpointURL: cfg.EndpointURL,
			Timeout:     cfg.Timeout,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new MP client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the carrier name.
func (c *Client) Name() string {
	return carrierName
}

// DeliveryType returns the dispatch tag.
func (c *Client) DeliveryType() string {
	return deliveryType
}

// RateShipment returns the shipping price for an order. Validation and
// configuration problems are reported before any network call; a remote
// decline comes back as an unsuccessful RateResult, not an error.
func (c *Client) RateShipment(ctx context.Context, req *carrier.RateRequest) (*carrier.RateResult, error) {
	if err := checkRequiredValue(req.Config, req.Destination, req.Origin, req.Order); err != nil {
		return nil, err
	}

	doc, err := buildRate(req.Config, req.Destination, req.Packages)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Requesting MP rate",
		zap.String("country", req.Destination.CountryCode),
		zap.Int("package_count", len(req.Packages)),
	)

	resp, err := c.send(ctx, req.Config, doc)
	if err != nil {
		return nil, err
	}

	return interpretRate(resp)
}

// SendShipping registers a shipment and returns the assigned tracking
// number.
func (c *Client) SendShipping(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	return c.sendShipment(ctx, ActionShipment, req)
}

// SendReturn registers a return shipment: the consignor/consignee roles are
// reversed and the export declaration carries the return-invoice number.
func (c *Client) SendReturn(ctx context.Context, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	reversed := *req
	reversed.Consignor = req.Consignee
	reversed.Consignee = req.Consignor
	return c.sendShipment(ctx, ActionReturn, &reversed)
}

func (c *Client) sendShipment(ctx context.Context, action string, req *carrier.ShipmentRequest) (*carrier.ShipmentResult, error) {
	if err := checkRequiredValue(req.Config, req.Consignee, req.Consignor, req.Order); err != nil {
		return nil, err
	}

	doc, err := buildShipment(action, req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Creating MP shipment",
		zap.String("action", action),
		zap.String("reference", req.Reference),
		zap.Int("package_count", len(req.Packages)),
	)

	resp, err := c.send(ctx, req.Config, doc)
	if err != nil {
		return nil, err
	}

	return interpretShipment(resp)
}

// CancelShipment reports that MP cannot cancel remotely: a scheduled pickup
// date is required, and the bridge never has one.
func (c *Client) CancelShipment(ctx context.Context, trackingRef string) error {
	return fmt.Errorf("%w: MP shipping can't be cancelled without a pickup date (tracking %s)",
		carrier.ErrCancellationNotSupported, trackingRef)
}

// TrackingLink returns the DHL express tracking URL for a tracking
// reference.
func (c *Client) TrackingLink(trackingRef string) string {
	if trackingRef == "" {
		return ""
	}
	return fmt.Sprintf(trackingURLTemplate, trackingRef)
}

func (c *Client) send(ctx context.Context, cfg carrier.Config, doc Document) (*Response, error) {
	creds := Credentials{Username: cfg.Username, Password: cfg.Password}
	resp, err := c.apiClient.Send(ctx, creds, doc)
	if err != nil {
		c.logger.Error("MP API error", zap.Error(err))
		return nil, err
	}
	return resp, nil
}

// Ensure Client implements the carrier interface
var _ carrier.Carrier = (*Client)(nil)
