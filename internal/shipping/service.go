// Package shipping dispatches rate, shipment, and return operations from
// host records to the carrier variant selected by the method's
// delivery-type tag.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/model"
	"github.com/warelink/mpbridge/internal/store"
	"github.com/warelink/mpbridge/internal/telemetry"
	"github.com/warelink/mpbridge/pkg/carrier"
	"go.uber.org/zap"
)

// labelDocumentID identifies the delivery-note template rendered for
// shipment attachments.
const labelDocumentID = "delivery_note"

// Service routes operations to carrier variants and writes results back to
// the record store.
type Service struct {
	store    store.Store
	registry *carrier.Registry
	renderer LabelRenderer
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
}

// NewService creates a shipping service.
func NewService(st store.Store, registry *carrier.Registry, renderer LabelRenderer, logger *otelzap.Logger, metrics *telemetry.Metrics) *Service {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Service{
		store:    st,
		registry: registry,
		renderer: renderer,
		logger:   logger,
		metrics:  metrics,
	}
}

// RateOrder rates an order against a carrier method.
func (s *Service) RateOrder(ctx context.Context, orderID, methodID string) (*carrier.RateResult, error) {
	method, err := s.store.GetCarrierMethod(ctx, methodID)
	if err != nil {
		return nil, fmt.Errorf("loading carrier method %s: %w", methodID, err)
	}
	variant, err := s.registry.Get(method.DeliveryType)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	destination, err := s.store.GetPartner(ctx, order.PartnerShippingID)
	if err != nil {
		return nil, fmt.Errorf("loading shipping partner: %w", err)
	}
	origin, err := s.store.GetPartner(ctx, order.WarehousePartnerID)
	if err != nil {
		return nil, fmt.Errorf("loading warehouse partner: %w", err)
	}

	packages, err := s.packagesFromOrder(ctx, order, method)
	if err != nil {
		return nil, err
	}

	req := &carrier.RateRequest{
		Config:      method.Config,
		Origin:      origin.Party,
		Destination: destination.Party,
		Packages:    packages,
		Order:       orderInfo(order),
	}

	start := time.Now()
	result, err := variant.RateShipment(ctx, req)
	s.observe("rate", variant.Name(), err, time.Since(start))
	return result, err
}

// SendPicking registers a shipment for a picking, writes the tracking
// reference back, and appends the success note.
func (s *Service) SendPicking(ctx context.Context, pickingID string) (*carrier.ShipmentResult, error) {
	return s.sendPicking(ctx, pickingID, false)
}

// ReturnPicking registers a return shipment for a picking. The variant
// reverses the consignor/consignee roles and the export declaration gets
// the next return-invoice number.
func (s *Service) ReturnPicking(ctx context.Context, pickingID string) (*carrier.ShipmentResult, error) {
	return s.sendPicking(ctx, pickingID, true)
}

func (s *Service) sendPicking(ctx context.Context, pickingID string, isReturn bool) (*carrier.ShipmentResult, error) {
	picking, method, variant, err := s.pickingContext(ctx, pickingID)
	if err != nil {
		return nil, err
	}

	req, err := s.shipmentRequest(ctx, picking, method)
	if err != nil {
		return nil, err
	}

	operation := "shipment"
	send := variant.SendShipping
	if isReturn {
		operation = "return"
		send = variant.SendReturn
		invoice, err := s.store.NextInvoiceNumber(ctx)
		if err != nil {
			return nil, fmt.Errorf("allocating return invoice number: %w", err)
		}
		req.InvoiceNumber = invoice
	}

	start := time.Now()
	result, err := send(ctx, req)
	s.observe(operation, variant.Name(), err, time.Since(start))
	if err != nil {
		return nil, err
	}

	tracking := result.TrackingNumber
	patch := model.PickingPatch{CarrierTrackingRef: &tracking}
	if result.ExactPrice > 0 {
		price := result.ExactPrice
		patch.CarrierPrice = &price
	}
	if err := s.store.UpdatePicking(ctx, picking.ID, patch); err != nil {
		return nil, fmt.Errorf("writing tracking reference: %w", err)
	}
	note := fmt.Sprintf(
		"Shipping to the Logistics Center has been successfully completed %s : %s, please proceed to the Logistics Center for the next steps",
		picking.Name, tracking)
	if isReturn {
		note = fmt.Sprintf("Return shipment registered for %s : %s", picking.Name, tracking)
	}
	if err := s.store.AppendPickingNote(ctx, picking.ID, note); err != nil {
		return nil, err
	}

	s.logger.Info("Shipment registered",
		zap.String("picking", picking.Name),
		zap.String("tracking", tracking),
		zap.Bool("return", isReturn),
	)
	return result, nil
}

// CancelPicking cancels the shipment of a picking. Variants that cannot
// cancel remotely still get their tracking reference and price cleared
// locally, with the refusal recorded on the activity log.
func (s *Service) CancelPicking(ctx context.Context, pickingID string) error {
	picking, _, variant, err := s.pickingContext(ctx, pickingID)
	if err != nil {
		return err
	}

	if err := variant.CancelShipment(ctx, picking.CarrierTrackingRef); err != nil {
		if !errors.Is(err, carrier.ErrCancellationNotSupported) {
			return err
		}
		if err := s.store.AppendPickingNote(ctx, picking.ID, err.Error()); err != nil {
			return err
		}
	}

	empty := ""
	zero := 0.0
	return s.store.UpdatePicking(ctx, picking.ID, model.PickingPatch{
		CarrierTrackingRef: &empty,
		CarrierPrice:       &zero,
	})
}

func (s *Service) pickingContext(ctx context.Context, pickingID string) (*model.Picking, *model.CarrierMethod, carrier.Carrier, error) {
	picking, err := s.store.GetPicking(ctx, pickingID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading picking %s: %w", pickingID, err)
	}
	if picking.CarrierID == "" {
		return nil, nil, nil, fmt.Errorf("picking %s has no carrier assigned", picking.Name)
	}
	method, err := s.store.GetCarrierMethod(ctx, picking.CarrierID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading carrier method: %w", err)
	}
	variant, err := s.registry.Get(method.DeliveryType)
	if err != nil {
		return nil, nil, nil, err
	}
	return picking, method, variant, nil
}

func (s *Service) shipmentRequest(ctx context.Context, picking *model.Picking, method *model.CarrierMethod) (*carrier.ShipmentRequest, error) {
	consignee, err := s.store.GetPartner(ctx, picking.PartnerID)
	if err != nil {
		return nil, fmt.Errorf("loading consignee: %w", err)
	}
	consignor, err := s.store.GetPartner(ctx, picking.WarehousePartnerID)
	if err != nil {
		return nil, fmt.Errorf("loading consignor: %w", err)
	}

	var order *model.Order
	if picking.OrderID != "" {
		order, err = s.store.GetOrder(ctx, picking.OrderID)
		if err != nil {
			return nil, fmt.Errorf("loading order: %w", err)
		}
	}

	packages, err := s.packagesFromOrder(ctx, order, method)
	if err != nil {
		return nil, err
	}

	reference := picking.Name
	if picking.SaleReference != "" {
		reference = picking.SaleReference + "_" + picking.Name
	}

	req := &carrier.ShipmentRequest{
		Config:    method.Config,
		Consignor: consignor.Party,
		Consignee: consignee.Party,
		Packages:  packages,
		Reference: reference,
		Warehouse: picking.WarehouseName,
		Order:     orderInfo(order),
	}

	data, filename, err := s.renderer.Render(ctx, labelDocumentID, picking.ID)
	if err != nil {
		return nil, fmt.Errorf("rendering label: %w", err)
	}
	if len(data) > 0 {
		if filename == "" {
			filename = fmt.Sprintf("Lieferschein - %s.pdf", picking.Name)
		}
		req.Label = &carrier.LabelArtifact{Data: data, Filename: filename}
	}

	return req, nil
}

// packagesFromOrder builds the package partition for a request. The
// partition itself comes from the host packaging configuration: with no
// packaging service attached, everything ships as one package of the
// method's default type.
func (s *Service) packagesFromOrder(ctx context.Context, order *model.Order, method *model.CarrierMethod) ([]carrier.Package, error) {
	pkg := carrier.Package{
		TypeCode: method.Config.DefaultPackageCode,
		Currency: "EUR",
	}

	if method.DefaultPackageTypeID != "" {
		pkgType, err := s.store.GetPackageType(ctx, method.DefaultPackageTypeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("loading package type: %w", err)
		}
		if err == nil {
			pkg.Height = pkgType.Height
			pkg.Length = pkgType.Length
			pkg.Width = pkgType.Width
		}
	}

	if order != nil {
		pkg.Currency = order.Currency
		for _, line := range order.Lines {
			if line.IsDelivery || line.IsService || line.IsSection {
				continue
			}
			pkg.Weight += line.UnitWeight * line.Quantity
			pkg.Value += line.UnitPrice * line.Quantity
			pkg.Commodities = append(pkg.Commodities, carrier.Commodity{
				Name:       line.ProductName,
				Code:       line.ProductCode,
				Quantity:   line.Quantity,
				UnitWeight: line.UnitWeight,
			})
		}
	}

	return []carrier.Package{pkg}, nil
}

func orderInfo(order *model.Order) *carrier.OrderInfo {
	if order == nil {
		return nil
	}
	return &carrier.OrderInfo{
		Reference:      order.Name,
		ClientOrderRef: order.ClientOrderRef,
		Currency:       order.Currency,
		Lines:          order.Lines,
	}
}

func (s *Service) observe(operation, carrierName string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
		if kind := carrier.KindOf(err); kind != "" {
			s.metrics.RecordError(carrierName, string(kind))
		}
	}
	s.metrics.RecordRequest(operation, carrierName, status, elapsed.Seconds())
}
