package carrier_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warelink/mpbridge/pkg/carrier"
)

func TestCarrierError_Error(t *testing.T) {
	err := carrier.NewValidationError("mp", "the address of the customer is missing or wrong (missing field(s): zip)")
	assert.Equal(t, "mp validation error: the address of the customer is missing or wrong (missing field(s): zip)", err.Error())
}

func TestCarrierError_ErrorWithCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := carrier.NewTransportError("mp", "request failed").WithCause(cause)
	assert.Contains(t, err.Error(), "request failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCarrierError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := carrier.NewTransportError("mp", "request failed").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestCarrierError_Is(t *testing.T) {
	err1 := carrier.NewConfigError("mp", "MP username is missing, please modify your delivery method settings")
	err2 := carrier.NewConfigError("mock", "different message")

	// Same kind should match
	assert.True(t, errors.Is(err1, err2))
}

func TestCarrierError_IsNot(t *testing.T) {
	err1 := carrier.NewConfigError("mp", "missing username")
	err2 := carrier.NewValidationError("mp", "missing zip")

	// Different kinds should not match
	assert.False(t, errors.Is(err1, err2))
}

func TestCarrierError_WithStatusCode(t *testing.T) {
	err := carrier.NewTransportError("mp", "unauthorized").WithStatusCode(401)
	assert.Equal(t, 401, err.StatusCode)
}

func TestKindOf_CarrierError(t *testing.T) {
	err := carrier.NewDataIntegrityError("mp", "rate response is missing the price field")
	assert.Equal(t, carrier.KindDataIntegrity, carrier.KindOf(err))
}

func TestKindOf_WrappedCarrierError(t *testing.T) {
	inner := carrier.NewValidationError("mp", "missing zip")
	wrapped := errors.Join(errors.New("outer"), inner)
	assert.Equal(t, carrier.KindValidation, carrier.KindOf(wrapped))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, carrier.Kind(""), carrier.KindOf(errors.New("plain")))
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrVariantNotFound", carrier.ErrVariantNotFound},
		{"ErrCancellationNotSupported", carrier.ErrCancellationNotSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}
