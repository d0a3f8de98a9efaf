package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/model"
	"github.com/warelink/mpbridge/internal/server"
	"github.com/warelink/mpbridge/internal/shipping"
	"github.com/warelink/mpbridge/internal/store"
	"github.com/warelink/mpbridge/internal/telemetry"
	"github.com/warelink/mpbridge/internal/tracking"
	"github.com/warelink/mpbridge/pkg/carrier"
	"github.com/warelink/mpbridge/pkg/carrier/mp"
	"go.uber.org/zap"
)

func newTestEnv(t *testing.T) (*store.Memory, http.Handler) {
	t.Helper()

	st := store.NewMemory()
	st.PutPartner(&model.Partner{
		ID: "partner-wh",
		Party: carrier.Party{
			Company:     "Warelink GmbH",
			Name:        "Warelink GmbH",
			Street:      "Lagerstrasse 1",
			City:        "Hamburg",
			Zip:         "20095",
			CountryCode: "DE",
			CountryName: "Germany",
			Phone:       "+49 40 123456",
		},
	})
	st.PutPartner(&model.Partner{
		ID: "partner-cust",
		Party: carrier.Party{
			Name:        "Jane Smith",
			Street:      "Musterweg 5",
			City:        "Berlin",
			Zip:         "10115",
			CountryCode: "DE",
			CountryName: "Germany",
			Phone:       "+49 30 654321",
		},
	})
	st.PutOrder(&model.Order{
		ID:                 "order-1",
		Name:               "SO001",
		Currency:           "EUR",
		PartnerShippingID:  "partner-cust",
		WarehousePartnerID: "partner-wh",
		Lines: []carrier.OrderLine{
			{ProductName: "Widget", Quantity: 2, UnitPrice: 19.99, UnitWeight: 1.5},
		},
	})
	st.PutCarrierMethod(&model.CarrierMethod{
		ID:           "cm-1",
		Name:         "MP Logistics",
		DeliveryType: "mp",
		Config: carrier.Config{
			Username:           "warehouse",
			Password:           "secret",
			WeightUnit:         carrier.WeightKG,
			DefaultPackageCode: "DHL_EXPRESS",
		},
	})
	st.PutPicking(&model.Picking{
		ID:                 "pick-1",
		Name:               "WH/OUT/0001",
		Origin:             "SO001",
		PartnerID:          "partner-cust",
		OrderID:            "order-1",
		SaleReference:      "SO001",
		WarehouseName:      "WH",
		WarehousePartnerID: "partner-wh",
		CarrierID:          "cm-1",
	})

	logger := otelzap.New(zap.NewNop())
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())

	registry := carrier.NewRegistry()
	registry.Register(mp.New(mp.Config{UseMock: true}, logger, nil))

	svc := shipping.NewService(st, registry, shipping.NopRenderer{}, logger, metrics)
	reconciler := tracking.New(st, logger)

	srv := server.New(server.Config{
		Port: 0,
		WebhookAuth: server.BasicAuth{
			Username: "hookuser",
			Password: "hookpass",
		},
	}, svc, reconciler, logger, metrics)

	return st, srv.Handler()
}

func trackingUpdateRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/delivery/tracking_update", strings.NewReader(body))
	req.SetBasicAuth("hookuser", "hookpass")
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeWebhook(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestServer_Health(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestServer_TrackingUpdate_Unauthorized(t *testing.T) {
	_, handler := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/delivery/tracking_update", strings.NewReader(`{}`))
	req.SetBasicAuth("hookuser", "wrong")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Invalid username or password", body["message"])
}

func TestServer_TrackingUpdate_NoAuthHeader(t *testing.T) {
	_, handler := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/delivery/tracking_update", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_TrackingUpdate_MissingFields(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{"name": "WH/OUT/0001"}`))

	// Business errors come back as HTTP 200 so the provider won't retry
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Missing required fields: name, origin, tracking_numbers and shipping_method are required", body["message"])
}

func TestServer_TrackingUpdate_TrackingNumbersNotArray(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{
		"name": "WH/OUT/0001",
		"origin": "SO001",
		"tracking_numbers": "TN1",
		"shipping_method": "DHL_EXPRESS",
		"delivery_date": "2026-09-05"
	}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "tracking_numbers must be an array", body["message"])
}

func TestServer_TrackingUpdate_PickingNotFound(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{
		"name": "WH/OUT/0009",
		"origin": "SO009",
		"tracking_numbers": ["TN1"],
		"shipping_method": "DHL_EXPRESS",
		"delivery_date": "2026-09-05"
	}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Picking not found for origin: SO009 and name: WH/OUT/0009", body["message"])
}

func TestServer_TrackingUpdate_Success(t *testing.T) {
	st, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{
		"name": "WH/OUT/0001",
		"origin": "SO001",
		"tracking_numbers": ["TN1", "TN2"],
		"shipping_method": "MP Logistics",
		"delivery_date": "2026-09-05"
	}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Empty(t, body["message"])

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Equal(t, "TN1,TN2", picking.CarrierTrackingRef)
	assert.Equal(t, "2026-09-05", picking.ScheduledDate)
}

func TestServer_TrackingUpdate_EmptyListClearsTracking(t *testing.T) {
	st, handler := newTestEnv(t)
	ref := "TNOLD"
	require.NoError(t, st.UpdatePicking(context.Background(), "pick-1", model.PickingPatch{
		CarrierTrackingRef: &ref,
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{
		"name": "WH/OUT/0001",
		"origin": "SO001",
		"tracking_numbers": [],
		"shipping_method": "MP Logistics",
		"delivery_date": "2026-09-05"
	}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "success", body["status"])

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Empty(t, picking.CarrierTrackingRef)
}

func TestServer_TrackingUpdate_NonStringField(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, trackingUpdateRequest(`{
		"name": 42,
		"origin": "SO001",
		"tracking_numbers": ["TN1"],
		"shipping_method": "DHL_EXPRESS",
		"delivery_date": "2026-09-05"
	}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeWebhook(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "name must be a string", body["message"])
}

func TestServer_TrackingUpdate_MethodNotAllowed(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/delivery/tracking_update", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Rate(t *testing.T) {
	_, handler := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"order_id": "order-1", "method_id": "cm-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/rate", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result carrier.RateResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, 12.5, result.Price)
}

func TestServer_Rate_UnknownMethod(t *testing.T) {
	_, handler := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"order_id": "order-1", "method_id": "nope"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/rate", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_Send(t *testing.T) {
	st, handler := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"picking_id": "pick-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/send", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result carrier.ShipmentResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.True(t, strings.HasPrefix(result.TrackingNumber, "MP"))

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Equal(t, result.TrackingNumber, picking.CarrierTrackingRef)
	require.Len(t, picking.Notes, 1)
	assert.Contains(t, picking.Notes[0], "Shipping to the Logistics Center has been successfully completed WH/OUT/0001")
}

func TestServer_Return(t *testing.T) {
	st, handler := newTestEnv(t)

	body, _ := json.Marshal(map[string]string{"picking_id": "pick-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/return", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result carrier.ShipmentResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.NotEmpty(t, result.TrackingNumber)

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Equal(t, result.TrackingNumber, picking.CarrierTrackingRef)
}

func TestServer_Cancel(t *testing.T) {
	st, handler := newTestEnv(t)

	// Give the picking something to clear
	ref := "MPOLD"
	price := 9.5
	require.NoError(t, st.UpdatePicking(context.Background(), "pick-1", model.PickingPatch{
		CarrierTrackingRef: &ref,
		CarrierPrice:       &price,
	}))

	body, _ := json.Marshal(map[string]string{"picking_id": "pick-1"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/cancel", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	picking, err := st.GetPicking(context.Background(), "pick-1")
	require.NoError(t, err)
	assert.Empty(t, picking.CarrierTrackingRef)
	assert.Zero(t, picking.CarrierPrice)
	require.Len(t, picking.Notes, 1)
	assert.Contains(t, picking.Notes[0], "can't be cancelled without a pickup date")
}

func TestServer_Rate_InvalidJSON(t *testing.T) {
	_, handler := newTestEnv(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/shipping/rate", strings.NewReader("{broken")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
