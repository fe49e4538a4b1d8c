package ebicserr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedErrorsUnwrapToUnderlyingCause(t *testing.T) {
	cause := errors.New("boom")

	cases := []error{
		&ConfigurationError{Field: "URL", Err: cause},
		&CreateRequestError{OrderType: "INI", Err: cause},
		&TransportError{URL: "https://bank.example.com", Err: cause},
		&CryptoError{Operation: "sign", Err: cause},
		&DeserializationError{Element: "OrderData", Err: cause},
	}
	for _, err := range cases {
		require.ErrorIs(t, err, cause)
		require.NotEmpty(t, err.Error())
	}
}

func TestProtocolErrorMessageIncludesReturnCodes(t *testing.T) {
	err := &ProtocolError{Envelope: ErrorEnvelope{TechnicalReturnCode: "091002", BusinessReturnCode: "", ReportText: "[EBICS_INVALID_USER_OR_TECHNICAL_MESSAGE_ID]"}}
	require.Contains(t, err.Error(), "091002")
	require.Contains(t, err.Error(), "EBICS_INVALID_USER_OR_TECHNICAL_MESSAGE_ID")
}

func TestErrorEnvelopeSuccess(t *testing.T) {
	require.True(t, ErrorEnvelope{TechnicalReturnCode: "000000"}.Success())
	require.True(t, ErrorEnvelope{TechnicalReturnCode: "000000", BusinessReturnCode: "00000000"}.Success())
	require.False(t, ErrorEnvelope{TechnicalReturnCode: "091002"}.Success())
	require.False(t, ErrorEnvelope{TechnicalReturnCode: "000000", BusinessReturnCode: "09001234"}.Success())
}

func TestSentinelErrorsAreWrappable(t *testing.T) {
	wrapped := fmt.Errorf("wrapping: %w", ErrTransactionState)
	require.ErrorIs(t, wrapped, ErrTransactionState)
}
