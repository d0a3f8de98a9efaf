package mp

import (
	"context"
)

// Document is the final wire form of a request, after the custom-data
// overlay has been applied.
type Document = map[string]any

// Credentials is the Basic-auth pair for the logistics endpoint.
type Credentials struct {
	Username string
	Password string
}

// APIClient defines the exchange with the MP logistics endpoint. The
// abstraction allows mock implementations during testing and the real HTTP
// implementation in production.
type APIClient interface {
	// Send performs one synchronous request against the logistics endpoint.
	Send(ctx context.Context, creds Credentials, payload Document) (*Response, error)
}

// ============================================================================
// Wire types (match the MP logistics JSON protocol)
// ============================================================================

// Action tags accepted by the endpoint and used as custom-data overlay keys.
const (
	ActionRate     = "rate"
	ActionShipment = "shipment"
	ActionReturn   = "return"
)

// RatePayload is the body of a rate request. A partial destination address
// is enough: only the country code is sent.
type RatePayload struct {
	Action         string  `json:"action"`
	ShippingMethod string  `json:"shipping_method"`
	Country        string  `json:"country"`
	TotalWeight    float64 `json:"total_weight"`
}

// PartyBlock is the provider schema for a consignor or consignee address.
type PartyBlock struct {
	CompanyName  string  `json:"CompanyName"`
	AddressLine1 string  `json:"AddressLine1"`
	AddressLine2 *string `json:"AddressLine2"`
	City         string  `json:"City"`
	Division     string  `json:"Division,omitempty"`
	DivisionCode string  `json:"DivisionCode,omitempty"`
	PostalCode   string  `json:"PostalCode"`
	CountryCode  string  `json:"CountryCode"`
	CountryName  string  `json:"CountryName"`
	PersonName   string  `json:"PersonName"`
	PhoneNumber  string  `json:"PhoneNumber"`
	Email        string  `json:"Email,omitempty"`
}

// GoodsItem is one customs line inside a package.
type GoodsItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Code     string  `json:"code"`
	Weight   float64 `json:"weight"`
}

// PackageInfo is one package in the shipment details. Weight is the
// kilogram value formatted with 3-decimal precision; dimensions are passed
// through in the configured unit.
type PackageInfo struct {
	Height float64     `json:"height"`
	Depth  float64     `json:"depth"`
	Width  float64     `json:"width"`
	Weight string      `json:"Weight"`
	Goods  []GoodsItem `json:"goods"`
}

// ShipmentDetails aggregates the packages of one request. TotalWeight sums
// the converted per-package weights.
type ShipmentDetails struct {
	TotalWeight     float64       `json:"total_weight"`
	WeightUnit      string        `json:"weight_unit"`
	DimensionUnit   string        `json:"dimension_unit"`
	InsuredValue    string        `json:"insured_value,omitempty"`
	InsuredCurrency string        `json:"insured_currency,omitempty"`
	PackageInfos    []PackageInfo `json:"package_infos"`
}

// ShipmentPayload is the body of a shipment or return request.
type ShipmentPayload struct {
	Action            string             `json:"action"`
	Warehouse         string             `json:"warehouse,omitempty"`
	ShippingMethod    string             `json:"shipping_method"`
	Consignee         PartyBlock         `json:"consignee"`
	Consignor         PartyBlock         `json:"consignor"`
	ReferenceNo       string             `json:"reference_no"`
	Details           ShipmentDetails    `json:"details"`
	FileBase64        string             `json:"file_base64,omitempty"`
	FileName          string             `json:"file_name,omitempty"`
	ExportDeclaration *ExportDeclaration `json:"export_declaration,omitempty"`
}

// ExportDeclaration is the customs section of a return request.
type ExportDeclaration struct {
	InvoiceDate       string           `json:"invoice_date"`
	InvoiceNumber     string           `json:"invoice_number"`
	ExportReason      string           `json:"export_reason,omitempty"`
	ReceiverReference string           `json:"receiver_reference,omitempty"`
	LineItems         []ExportLineItem `json:"line_items"`
}

// ExportLineItem is one declared line.
type ExportLineItem struct {
	LineNumber             int         `json:"line_number"`
	Quantity               int         `json:"quantity"`
	QuantityUnit           string      `json:"quantity_unit"`
	Description            string      `json:"description"`
	Value                  string      `json:"value"`
	Weight                 WeightBlock `json:"weight"`
	GrossWeight            WeightBlock `json:"gross_weight"`
	ManufactureCountryCode string      `json:"manufacture_country_code,omitempty"`
	CommodityCode          string      `json:"commodity_code,omitempty"`
	ImportCommodityCode    string      `json:"import_commodity_code,omitempty"`
}

// WeightBlock pairs a formatted weight value with its unit.
type WeightBlock struct {
	Weight     string `json:"weight"`
	WeightUnit string `json:"weight_unit"`
}

// Response is the endpoint's reply. Status 200 carries Data; any other
// status carries Msg. Exactly one of the two is meaningful.
type Response struct {
	Status int           `json:"status"`
	Data   *ResponseData `json:"data,omitempty"`
	Msg    string        `json:"msg,omitempty"`
}

// ResponseData is the success payload.
type ResponseData struct {
	Price            *float64 `json:"price,omitempty"`
	TrackingNumber   *string  `json:"tracking_number,omitempty"`
	Label            *string  `json:"label,omitempty"` // base64
	ShippingMessage  string   `json:"shipping_message,omitempty"`
	WarehouseMessage string   `json:"warehouse_message,omitempty"`
}
