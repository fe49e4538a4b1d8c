package ebicscrypto

import (
	"bytes"
	"compress/zlib"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"math/big"
	"time"
)

// DeflateZlib compresses data with the raw ZLIB (RFC 1950) format EBICS
// order data uses before AES encryption.
func DeflateZlib(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("ebicscrypto: zlib deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("ebicscrypto: zlib deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// InflateZlib reverses DeflateZlib.
func InflateZlib(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: zlib inflate: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: zlib inflate: %w", err)
	}
	return out, nil
}

// RandomNonce returns 16 cryptographically random bytes for the
// StaticHeader/Nonce element.
func RandomNonce() ([]byte, error) {
	return randomBytes(16)
}

// RandomTransactionKey returns a fresh 16-byte AES-128 session key for an
// upload transaction.
func RandomTransactionKey() ([]byte, error) {
	return randomBytes(16)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("ebicscrypto: random bytes: %w", err)
	}
	return b, nil
}

// UTCTimestamp formats t (or now, if the zero value is passed) in the
// EBICS wire format: yyyy-MM-ddTHH:mm:ss.fffZ.
func UTCTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// PubKeyDigest computes the EBICS "public key digest": SHA-256 of the
// ASCII string "<exponent-hex> <modulus-hex>", where each is the
// lower-case hex of the unsigned integer with no leading zero digits
// (65537 is written "10001"), separated by a single space.
func PubKeyDigest(modulus *big.Int, exponent *big.Int) [32]byte {
	expHex := trimmedHex(exponent)
	modHex := trimmedHex(modulus)
	ascii := expHex + " " + modHex
	return sha256.Sum256([]byte(ascii))
}

func trimmedHex(v *big.Int) string {
	return v.Text(16)
}
