package mp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/warelink/mpbridge/pkg/carrier"
)

// HTTPAPIClient is the production implementation of APIClient.
type HTTPAPIClient struct {
	endpointURL string
	httpClient  *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	EndpointURL string
	Timeout     time.Duration
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPAPIClient{
		endpointURL: cfg.EndpointURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Send performs one synchronous POST against the logistics endpoint.
// Shipment creation must not be silently retried (duplicate physical
// shipments), so there is no retry loop here: any failure is surfaced as a
// transport error and resubmission is the caller's decision.
func (c *HTTPAPIClient) Send(ctx context.Context, creds Credentials, payload Document) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, carrier.NewTransportError(carrierName, "failed to encode request body").WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, carrier.NewTransportError(carrierName, "failed to create request").WithCause(err)
	}

	req.Header.Set("Authorization", "Basic "+basicAuth(creds))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "mpbridge/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, carrier.NewTransportError(carrierName, "request failed").WithCause(err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Raw response text is the message, verbatim.
		return nil, carrier.NewTransportError(carrierName, string(raw)).WithStatusCode(resp.StatusCode)
	}

	var result Response
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, carrier.NewTransportError(carrierName, "failed to decode response body").
			WithStatusCode(resp.StatusCode).WithCause(err)
	}

	return &result, nil
}

func basicAuth(creds Credentials) string {
	return base64.StdEncoding.EncodeToString([]byte(creds.Username + ":" + creds.Password))
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
