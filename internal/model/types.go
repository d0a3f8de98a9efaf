// Package model defines the host-owned records the bridge reads and
// mutates. Their lifecycle belongs to the warehouse application; the core
// only looks records up by field equality and writes individual fields.
package model

import (
	"github.com/warelink/mpbridge/pkg/carrier"
)

// Picking is a single outbound or inbound movement of goods. The tracking
// reconciler mutates CarrierID, CarrierTrackingRef, and ScheduledDate, and
// appends to the activity log; it does not own the record.
type Picking struct {
	ID                 string
	Name               string // e.g. "WH/OUT/0001"
	Origin             string // source document, e.g. "SO001"
	PartnerID          string // consignee partner
	OrderID            string // bound sale order, if any
	SaleReference      string // sale order name, for the shipment reference
	WarehouseName      string
	WarehousePartnerID string // consignor address record
	CarrierID          string // assigned carrier method, "" = none
	CarrierTrackingRef string // comma-joined tracking numbers
	CarrierPrice       float64
	ScheduledDate      string
	Notes              []string // free-text activity log
}

// PickingPatch is a partial field write against a picking. Nil fields are
// left untouched.
type PickingPatch struct {
	CarrierID          *string
	CarrierTrackingRef *string
	CarrierPrice       *float64
	ScheduledDate      *string
}

// CarrierMethod is a configured delivery method. DeliveryType selects the
// carrier variant; Config is read-only to the variant.
type CarrierMethod struct {
	ID                   string
	Name                 string
	DeliveryType         string
	DefaultPackageTypeID string
	Config               carrier.Config
}

// PackageType is a configured physical packaging profile.
type PackageType struct {
	ID          string
	Name        string
	ShipperCode string // provider-specific shipping-method code
	CarrierType string // delivery-type tag this profile belongs to
	Height      float64
	Length      float64
	Width       float64
}

// Partner is an address-bearing contact record.
type Partner struct {
	ID string
	carrier.Party
}

// Order is a sale order bound to a rate or shipment request.
type Order struct {
	ID                 string
	Name               string
	ClientOrderRef     string
	Currency           string
	PartnerShippingID  string
	WarehousePartnerID string // consignor address for rating
	Lines              []carrier.OrderLine
}
