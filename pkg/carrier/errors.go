package carrier

import (
	"errors"
	"fmt"
)

// Kind classifies carrier errors into the taxonomy callers dispatch on.
type Kind string

const (
	// KindConfig: missing credentials or malformed custom data. Reported
	// before any network call, never retried.
	KindConfig Kind = "config"

	// KindValidation: missing or incomplete address/item data, aggregated
	// into one message. No network call is made.
	KindValidation Kind = "validation"

	// KindTransport: non-2xx HTTP status or unparseable body. Surfaced
	// verbatim, not retried automatically.
	KindTransport Kind = "transport"

	// KindDataIntegrity: a nominally successful response missing an
	// expected field.
	KindDataIntegrity Kind = "data_integrity"

	// KindNotFound: a referenced record does not exist.
	KindNotFound Kind = "not_found"
)

// CarrierError represents an error raised by a carrier variant.
type CarrierError struct {
	Carrier    string
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s error: %s: %v", e.Carrier, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s %s error: %s", e.Carrier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is matches two CarrierErrors by kind.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause attaches an underlying cause.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// WithStatusCode attaches the remote HTTP status.
func (e *CarrierError) WithStatusCode(code int) *CarrierError {
	e.StatusCode = code
	return e
}

// NewConfigError reports a configuration problem.
func NewConfigError(carrier, message string) *CarrierError {
	return &CarrierError{Carrier: carrier, Kind: KindConfig, Message: message}
}

// NewValidationError reports incomplete or invalid input data.
func NewValidationError(carrier, message string) *CarrierError {
	return &CarrierError{Carrier: carrier, Kind: KindValidation, Message: message}
}

// NewTransportError reports a failed remote exchange.
func NewTransportError(carrier, message string) *CarrierError {
	return &CarrierError{Carrier: carrier, Kind: KindTransport, Message: message}
}

// NewDataIntegrityError reports a successful response missing expected data.
func NewDataIntegrityError(carrier, message string) *CarrierError {
	return &CarrierError{Carrier: carrier, Kind: KindDataIntegrity, Message: message}
}

// KindOf returns the kind of a carrier error, or "" for other errors.
func KindOf(err error) Kind {
	var ce *CarrierError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Sentinel errors.
var (
	// ErrVariantNotFound indicates no carrier is registered for a
	// delivery-type tag.
	ErrVariantNotFound = errors.New("carrier variant not found")

	// ErrCancellationNotSupported indicates the variant cannot cancel the
	// shipment remotely.
	ErrCancellationNotSupported = errors.New("cancellation not supported")
)
