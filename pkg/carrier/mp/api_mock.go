package mp

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warelink/mpbridge/pkg/carrier"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnSend func(ctx context.Context, creds Credentials, payload Document) (*Response, error)

	mu   sync.Mutex
	sent []Document
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Sent returns the payloads captured by previous Send calls.
func (m *MockAPIClient) Sent() []Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recently captured payload, or nil.
func (m *MockAPIClient) LastSent() Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

// Send records the payload and returns a canned response by action.
func (m *MockAPIClient) Send(ctx context.Context, creds Credentials, payload Document) (*Response, error) {
	m.mu.Lock()
	m.sent = append(m.sent, payload)
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, carrier.NewTransportError(carrierName, "simulated API error").WithStatusCode(500)
	}

	if m.OnSend != nil {
		return m.OnSend(ctx, creds, payload)
	}

	action, _ := payload["action"].(string)
	switch action {
	case ActionRate:
		price := 12.5
		return &Response{Status: 200, Data: &ResponseData{Price: &price}}, nil
	case ActionShipment, ActionReturn:
		tracking := "MP" + uuid.New().String()[:8]
		return &Response{Status: 200, Data: &ResponseData{TrackingNumber: &tracking}}, nil
	default:
		return &Response{Status: 400, Msg: "unknown action: " + action}, nil
	}
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
