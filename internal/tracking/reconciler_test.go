package tracking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/model"
	"github.com/warelink/mpbridge/internal/store"
	"github.com/warelink/mpbridge/internal/tracking"
	"github.com/warelink/mpbridge/pkg/carrier"
	"go.uber.org/zap"
)

func seededStore() *store.Memory {
	st := store.NewMemory()
	st.PutPicking(&model.Picking{
		ID:     "pick-1",
		Name:   "WH/OUT/0001",
		Origin: "SO001",
	})
	st.PutPackageType(&model.PackageType{
		ID:          "pt-1",
		Name:        "DHL Express Box",
		ShipperCode: "DHL_EXPRESS",
		CarrierType: "mp",
	})
	st.PutCarrierMethod(&model.CarrierMethod{
		ID:                   "cm-1",
		Name:                 "DHL Express",
		DeliveryType:         "mp",
		DefaultPackageTypeID: "pt-1",
		Config:               carrier.Config{Username: "u", Password: "p"},
	})
	return st
}

func newReconciler(st store.Store) *tracking.Reconciler {
	return tracking.New(st, otelzap.New(zap.NewNop()))
}

func TestReconciler_Apply_PackageTypeResolution(t *testing.T) {
	st := seededStore()
	r := newReconciler(st)

	result, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN1", "TN2"},
		ShippingMethod:  "DHL_EXPRESS",
		DeliveryDate:    "2026-09-05",
	})

	require.NoError(t, err)
	assert.True(t, result.CarrierChanged)
	assert.Equal(t, "cm-1", result.CarrierID)
	assert.Equal(t, "TN1,TN2", result.TrackingRef)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Equal(t, "cm-1", picking.CarrierID)
	assert.Equal(t, "TN1,TN2", picking.CarrierTrackingRef)
	assert.Equal(t, "2026-09-05", picking.ScheduledDate)
	require.Len(t, picking.Notes, 1)
	assert.Equal(t, "Tracking numbers updated to TN1,TN2 and Carrier updated to DHL Express via API", picking.Notes[0])
}

func TestReconciler_Apply_NotFound(t *testing.T) {
	r := newReconciler(seededStore())

	_, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/9999",
		Origin:          "SO999",
		TrackingNumbers: []string{"TN1"},
		ShippingMethod:  "DHL_EXPRESS",
	})

	require.Error(t, err)
	assert.Equal(t, "Picking not found for origin: SO999 and name: WH/OUT/9999", err.Error())
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestReconciler_Apply_ReplayIsIdempotentForCarrier(t *testing.T) {
	st := seededStore()
	r := newReconciler(st)

	upd := &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN1"},
		ShippingMethod:  "DHL_EXPRESS",
	}

	first, err := r.Apply(context.Background(), upd)
	require.NoError(t, err)
	assert.True(t, first.CarrierChanged)

	second, err := r.Apply(context.Background(), upd)
	require.NoError(t, err)
	assert.False(t, second.CarrierChanged)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Equal(t, "TN1", picking.CarrierTrackingRef)

	// Every accepted update is audited, even a replay
	require.Len(t, picking.Notes, 2)
	assert.Equal(t, "Tracking numbers updated to TN1 and Carrier updated to DHL Express via API", picking.Notes[0])
	assert.Equal(t, "Tracking numbers updated to TN1 via API", picking.Notes[1])
}

func TestReconciler_Apply_FallbackByNameOrType(t *testing.T) {
	st := seededStore()
	r := newReconciler(st)

	// No package type matches, but a carrier method carries this name
	result, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN7"},
		ShippingMethod:  "DHL Express",
	})

	require.NoError(t, err)
	assert.True(t, result.CarrierChanged)
	assert.Equal(t, "cm-1", result.CarrierID)
}

func TestReconciler_Apply_MatchedPackageTypeWithoutCarrierEndsResolution(t *testing.T) {
	st := store.NewMemory()
	st.PutPicking(&model.Picking{
		ID:     "pick-1",
		Name:   "WH/OUT/0001",
		Origin: "SO001",
	})
	// A package type matches the shipper code, but no carrier method uses
	// it as its default.
	st.PutPackageType(&model.PackageType{
		ID:          "pt-orphan",
		Name:        "Orphan Box",
		ShipperCode: "DHL_EXPRESS",
		CarrierType: "mp",
	})
	// A foreign carrier that happens to share the shipping-method string
	// as its name must not be picked up.
	st.PutCarrierMethod(&model.CarrierMethod{
		ID:           "cm-other",
		Name:         "DHL_EXPRESS",
		DeliveryType: "ups",
	})
	r := newReconciler(st)

	result, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN1"},
		ShippingMethod:  "DHL_EXPRESS",
	})

	require.NoError(t, err)
	assert.False(t, result.CarrierChanged)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Empty(t, picking.CarrierID)
	assert.Equal(t, "TN1", picking.CarrierTrackingRef)
}

func TestReconciler_Apply_EmptyListClearsTracking(t *testing.T) {
	st := seededStore()
	ref := "TNOLD"
	require.NoError(t, st.UpdatePicking(context.Background(), "pick-1", model.PickingPatch{
		CarrierTrackingRef: &ref,
	}))
	r := newReconciler(st)

	result, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{},
		ShippingMethod:  "DHL_EXPRESS",
	})

	require.NoError(t, err)
	assert.Empty(t, result.TrackingRef)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Empty(t, picking.CarrierTrackingRef)
	require.Len(t, picking.Notes, 1)
	assert.Equal(t, "Tracking numbers updated to  and Carrier updated to DHL Express via API", picking.Notes[0])
}

func TestReconciler_Apply_UnresolvedMethodStillUpdatesTracking(t *testing.T) {
	st := seededStore()
	r := newReconciler(st)

	result, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN1"},
		ShippingMethod:  "UNKNOWN_METHOD",
	})

	require.NoError(t, err)
	assert.False(t, result.CarrierChanged)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Empty(t, picking.CarrierID)
	assert.Equal(t, "TN1", picking.CarrierTrackingRef)
	require.Len(t, picking.Notes, 1)
	assert.Equal(t, "Tracking numbers updated to TN1 via API", picking.Notes[0])
}

// recordingStore captures every picking patch in order.
type recordingStore struct {
	*store.Memory
	patches []model.PickingPatch
}

func (r *recordingStore) UpdatePicking(ctx context.Context, id string, patch model.PickingPatch) error {
	r.patches = append(r.patches, patch)
	return r.Memory.UpdatePicking(ctx, id, patch)
}

func TestReconciler_Apply_ClearThenSetSequence(t *testing.T) {
	st := &recordingStore{Memory: seededStore()}
	r := newReconciler(st)

	_, err := r.Apply(context.Background(), &tracking.Update{
		Name:            "WH/OUT/0001",
		Origin:          "SO001",
		TrackingNumbers: []string{"TN1", "TN2"},
		ShippingMethod:  "DHL_EXPRESS",
		DeliveryDate:    "2026-09-05",
	})
	require.NoError(t, err)

	require.Len(t, st.patches, 3)

	// Schedule date lands before anything touches the carrier fields
	require.NotNil(t, st.patches[0].ScheduledDate)
	assert.Equal(t, "2026-09-05", *st.patches[0].ScheduledDate)

	// The tracking value is cleared together with the carrier switch
	require.NotNil(t, st.patches[1].CarrierTrackingRef)
	assert.Empty(t, *st.patches[1].CarrierTrackingRef)
	require.NotNil(t, st.patches[1].CarrierID)
	assert.Equal(t, "cm-1", *st.patches[1].CarrierID)

	// Then the new value is written
	require.NotNil(t, st.patches[2].CarrierTrackingRef)
	assert.Equal(t, "TN1,TN2", *st.patches[2].CarrierTrackingRef)
	assert.Nil(t, st.patches[2].CarrierID)
}
