package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/warelink/mpbridge/internal/shipping"
	"github.com/warelink/mpbridge/internal/telemetry"
	"github.com/warelink/mpbridge/internal/tracking"
	"go.uber.org/zap"
)

// Server is the HTTP server for the bridge service.
type Server struct {
	port       int
	auth       BasicAuth
	shipping   *shipping.Service
	reconciler *tracking.Reconciler
	logger     *otelzap.Logger
	metrics    *telemetry.Metrics
}

// BasicAuth holds the credential pair inbound webhook calls must present.
type BasicAuth struct {
	Username string
	Password string
}

// Config holds server configuration.
type Config struct {
	Port        int
	WebhookAuth BasicAuth
}

// New creates a new server instance.
func New(cfg Config, svc *shipping.Service, reconciler *tracking.Reconciler, logger *otelzap.Logger, metrics *telemetry.Metrics) *Server {
	return &Server{
		port:       cfg.Port,
		auth:       cfg.WebhookAuth,
		shipping:   svc,
		reconciler: reconciler,
		logger:     logger,
		metrics:    metrics,
	}
}

// Handler returns the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/delivery/tracking_update", s.handleTrackingUpdate)
	mux.HandleFunc("/shipping/rate", s.handleRate)
	mux.HandleFunc("/shipping/send", s.handleSend)
	mux.HandleFunc("/shipping/return", s.handleReturn)
	mux.HandleFunc("/shipping/cancel", s.handleCancel)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// webhookResponse is the envelope the notifying provider expects. Business
// failures still answer HTTP 200 so the provider does not retry them; only
// bad credentials get a real 401.
type webhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func writeWebhook(w http.ResponseWriter, httpStatus int, resp webhookResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.auth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.auth.Password)) == 1
	return userOK && passOK
}

func (s *Server) handleTrackingUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeWebhook(w, http.StatusMethodNotAllowed, webhookResponse{
			Status: "error", Message: "Method not allowed, use POST",
		})
		return
	}

	if !s.authorized(r) {
		s.logger.Ctx(r.Context()).Warn("Authentication failed for tracking update request")
		s.metrics.RecordTrackingUpdate("unauthorized")
		writeWebhook(w, http.StatusUnauthorized, webhookResponse{
			Status: "error", Message: "Invalid username or password",
		})
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil || len(raw) == 0 {
		s.metrics.RecordTrackingUpdate("invalid")
		writeWebhook(w, http.StatusOK, webhookResponse{
			Status: "error", Message: "no data provided",
		})
		return
	}

	// delivery_date must be present too, but the message only names the
	// fields a caller can act on.
	for _, key := range []string{"name", "origin", "tracking_numbers", "shipping_method", "delivery_date"} {
		if _, ok := raw[key]; !ok {
			s.metrics.RecordTrackingUpdate("invalid")
			writeWebhook(w, http.StatusOK, webhookResponse{
				Status:  "error",
				Message: "Missing required fields: name, origin, tracking_numbers and shipping_method are required",
			})
			return
		}
	}

	var numbers []string
	if err := json.Unmarshal(raw["tracking_numbers"], &numbers); err != nil {
		s.metrics.RecordTrackingUpdate("invalid")
		writeWebhook(w, http.StatusOK, webhookResponse{
			Status: "error", Message: "tracking_numbers must be an array",
		})
		return
	}

	var upd tracking.Update
	for key, dst := range map[string]*string{
		"name":            &upd.Name,
		"origin":          &upd.Origin,
		"shipping_method": &upd.ShippingMethod,
		"delivery_date":   &upd.DeliveryDate,
		"provider":        &upd.Provider,
	} {
		msg, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			s.metrics.RecordTrackingUpdate("invalid")
			writeWebhook(w, http.StatusOK, webhookResponse{
				Status: "error", Message: key + " must be a string",
			})
			return
		}
	}
	upd.TrackingNumbers = numbers

	result, err := s.reconciler.Apply(r.Context(), &upd)
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Tracking update failed", zap.Error(err))
		s.metrics.RecordTrackingUpdate("error")
		writeWebhook(w, http.StatusOK, webhookResponse{
			Status: "error", Message: err.Error(),
		})
		return
	}

	s.logger.Ctx(r.Context()).Info("Tracking update applied",
		zap.String("picking", result.PickingName),
		zap.String("tracking_ref", result.TrackingRef),
	)
	s.metrics.RecordTrackingUpdate("success")
	writeWebhook(w, http.StatusOK, webhookResponse{Status: "success"})
}

type rateRequest struct {
	OrderID  string `json:"order_id"`
	MethodID string `json:"method_id"`
}

type pickingRequest struct {
	PickingID string `json:"picking_id"`
}

type apiError struct {
	Error string `json:"error"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "Method not allowed, use POST"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "Invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.shipping.RateOrder(r.Context(), req.OrderID, req.MethodID)
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Rating failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req pickingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.shipping.SendPicking(r.Context(), req.PickingID)
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Shipment failed",
			zap.String("picking_id", req.PickingID), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req pickingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.shipping.ReturnPicking(r.Context(), req.PickingID)
	if err != nil {
		s.logger.Ctx(r.Context()).Error("Return shipment failed",
			zap.String("picking_id", req.PickingID), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req pickingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.shipping.CancelPicking(r.Context(), req.PickingID); err != nil {
		s.logger.Ctx(r.Context()).Error("Cancellation failed",
			zap.String("picking_id", req.PickingID), zap.Error(err))
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}
