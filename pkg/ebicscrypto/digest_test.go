package ebicscrypto

import (
	"crypto/sha256"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}

func TestPubKeyDigestMatchesSpecExample(t *testing.T) {
	exponent := big.NewInt(0x010001)
	modulus, ok := new(big.Int).SetString("B4"+"00000000000000000000000000000000000000000000000000000000000001", 16)
	require.True(t, ok)

	got := PubKeyDigest(modulus, exponent)
	want := sha256.Sum256([]byte("10001 b400000000000000000000000000000000000000000000000000000000000001"))
	require.Equal(t, want, got)
}

func TestPubKeyDigestTrimsLeadingZeroByte(t *testing.T) {
	// A modulus whose big-endian encoding carries a leading 0x00 byte (its
	// top bit set, so encoding/asn1-style unsigned representations pad it)
	// must not have that byte reflected in the digest's hex string.
	padded := new(big.Int).SetBytes([]byte{0x00, 0xF0, 0x01})
	unpadded := new(big.Int).SetBytes([]byte{0xF0, 0x01})

	require.Equal(t, PubKeyDigest(padded, big.NewInt(3)), PubKeyDigest(unpadded, big.NewInt(3)))
}

func TestDeflateInflateRoundTrip(t *testing.T) {
	original := []byte("<ebicsRequest>payload</ebicsRequest>")
	deflated, err := DeflateZlib(original)
	require.NoError(t, err)
	require.NotEqual(t, original, deflated)

	inflated, err := InflateZlib(deflated)
	require.NoError(t, err)
	require.Equal(t, original, inflated)
}

func TestUTCTimestampFormat(t *testing.T) {
	ts := UTCTimestamp(mustParseTime(t, "2024-03-01T10:00:00Z"))
	require.Equal(t, "2024-03-01T10:00:00.000Z", ts)
}
