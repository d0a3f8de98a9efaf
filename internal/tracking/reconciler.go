// Package tracking reconciles asynchronous tracking-update notifications
// against local shipment records.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/model"
	"github.com/warelink/mpbridge/internal/store"
	"go.uber.org/zap"
)

// defaultProviderTag is assumed when a notification carries no provider
// field. This bridge receives updates for the MP variant only.
const defaultProviderTag = "mp"

// Update is one inbound tracking notification. It is applied to the
// matched picking and then discarded, never stored.
type Update struct {
	Name            string   `json:"name"`
	Origin          string   `json:"origin"`
	TrackingNumbers []string `json:"tracking_numbers"`
	ShippingMethod  string   `json:"shipping_method"`
	DeliveryDate    string   `json:"delivery_date,omitempty"`
	Provider        string   `json:"provider,omitempty"`
}

// Result summarizes an applied update.
type Result struct {
	PickingID      string
	PickingName    string
	TrackingRef    string
	CarrierChanged bool
	CarrierID      string
	CarrierName    string
}

// NotFoundError reports that no picking matched the update's reference
// identifiers. Its message is surfaced to the notifying provider verbatim.
type NotFoundError struct {
	Origin string
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Picking not found for origin: %s and name: %s", e.Origin, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == store.ErrNotFound
}

// Reconciler matches updates to pickings and applies carrier, tracking, and
// schedule mutations idempotently.
type Reconciler struct {
	store  store.Store
	logger *otelzap.Logger
}

// New creates a reconciler over the given record store.
func New(st store.Store, logger *otelzap.Logger) *Reconciler {
	return &Reconciler{store: st, logger: logger}
}

// Apply matches the update to a picking and applies it. The match and the
// writes run under a per-picking lock, so two notifications for the same
// shipment can't lose updates. Replaying an identical update is a no-op
// for the carrier but still rewrites the tracking value and appends a
// fresh audit note: every accepted update is audited.
func (r *Reconciler) Apply(ctx context.Context, upd *Update) (*Result, error) {
	picking, err := r.store.FindPicking(ctx, upd.Origin, upd.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.logger.Warn("Picking not found for tracking update",
				zap.String("origin", upd.Origin),
				zap.String("name", upd.Name),
			)
			return nil, &NotFoundError{Origin: upd.Origin, Name: upd.Name}
		}
		return nil, err
	}

	var result *Result
	err = r.store.WithPickingLock(ctx, picking.ID, func(ctx context.Context) error {
		current, err := r.store.GetPicking(ctx, picking.ID)
		if err != nil {
			return err
		}
		result, err = r.apply(ctx, current, upd)
		return err
	})
	return result, err
}

func (r *Reconciler) apply(ctx context.Context, picking *model.Picking, upd *Update) (*Result, error) {
	// Schedule date is written first, independently of any carrier or
	// tracking change.
	if upd.DeliveryDate != "" {
		date := upd.DeliveryDate
		if err := r.store.UpdatePicking(ctx, picking.ID, model.PickingPatch{ScheduledDate: &date}); err != nil {
			return nil, err
		}
	}

	resolved := r.resolveCarrier(ctx, upd)
	carrierUpdateNeeded := resolved != nil && picking.CarrierID != resolved.ID

	joined := strings.Join(upd.TrackingNumbers, ",")

	// Clear tracking first, switching the carrier in the same write when
	// needed, then set the new value. Intermediate observers never see a
	// changed carrier still holding the old tracking reference.
	empty := ""
	clearPatch := model.PickingPatch{CarrierTrackingRef: &empty}
	if carrierUpdateNeeded {
		clearPatch.CarrierID = &resolved.ID
	}
	if err := r.store.UpdatePicking(ctx, picking.ID, clearPatch); err != nil {
		return nil, err
	}
	if err := r.store.UpdatePicking(ctx, picking.ID, model.PickingPatch{CarrierTrackingRef: &joined}); err != nil {
		return nil, err
	}

	parts := []string{fmt.Sprintf("Tracking numbers updated to %s", joined)}
	if carrierUpdateNeeded {
		parts = append(parts, fmt.Sprintf("Carrier updated to %s", resolved.Name))
	}
	note := strings.Join(parts, " and ") + " via API"
	if err := r.store.AppendPickingNote(ctx, picking.ID, note); err != nil {
		return nil, err
	}

	r.logger.Info("Tracking update applied",
		zap.String("picking", picking.Name),
		zap.String("tracking_ref", joined),
		zap.Bool("carrier_changed", carrierUpdateNeeded),
	)

	result := &Result{
		PickingID:      picking.ID,
		PickingName:    picking.Name,
		TrackingRef:    joined,
		CarrierChanged: carrierUpdateNeeded,
	}
	if resolved != nil {
		result.CarrierID = resolved.ID
		result.CarrierName = resolved.Name
	}
	return result, nil
}

// resolveCarrier maps a shipping-method code to a configured carrier
// method. Two passes: package-type shipper code scoped to the provider
// tag, then a direct lookup by carrier name or delivery type. The fallback
// runs only when the package-type lookup itself found nothing: a matched
// package type with no carrier method behind it ends resolution without a
// carrier change. The fallback pass does not consult the provider tag;
// behavior when several carriers share a name is left as it stands. No
// match is not an error: processing continues without a carrier change.
func (r *Reconciler) resolveCarrier(ctx context.Context, upd *Update) *model.CarrierMethod {
	if upd.ShippingMethod == "" {
		return nil
	}

	providerTag := upd.Provider
	if providerTag == "" {
		providerTag = defaultProviderTag
	}

	pkgType, err := r.store.FindPackageType(ctx, upd.ShippingMethod, providerTag)
	if err == nil {
		method, err := r.store.FindCarrierMethodByPackageType(ctx, pkgType.ID, providerTag)
		if err == nil {
			return method
		}
		r.logger.Warn("No carrier found for package type",
			zap.String("package_type", pkgType.Name),
		)
		return nil
	}

	method, err := r.store.FindCarrierMethodByNameOrType(ctx, upd.ShippingMethod)
	if err == nil {
		return method
	}

	r.logger.Warn("No carrier resolved for shipping method",
		zap.String("shipping_method", upd.ShippingMethod),
	)
	return nil
}
