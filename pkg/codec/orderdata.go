package codec

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
)

// Encoded is the result of composing an upload payload: the encrypted,
// segmented, Base64 chunks plus the RSA-wrapped session key that travels
// alongside them in DataEncryptionInfo.
type Encoded struct {
	TransactionKey   []byte // plaintext, kept by the caller for the life of the transaction
	WrappedKey       []byte // RSA-wrapped under the bank's encryption public key
	SegmentsBase64   []string
}

// Compose deflates, AES-encrypts under a freshly generated session key,
// RSA-wraps that key for bankEncryptKey, and splits the ciphertext into
// segments of at most MaxSegmentBytes bytes, each Base64-encoded.
func Compose(payload []byte, bankEncryptKey *rsa.PublicKey) (Encoded, error) {
	deflated, err := ebicscrypto.DeflateZlib(payload)
	if err != nil {
		return Encoded{}, fmt.Errorf("codec: compose: %w", err)
	}

	key, err := ebicscrypto.RandomTransactionKey()
	if err != nil {
		return Encoded{}, fmt.Errorf("codec: compose: %w", err)
	}

	ciphertext, err := ebicscrypto.AESCBCEncrypt(key, deflated)
	if err != nil {
		return Encoded{}, fmt.Errorf("codec: compose: %w", err)
	}

	wrapped, err := ebicscrypto.EncryptPKCS1v15(bankEncryptKey, key)
	if err != nil {
		return Encoded{}, fmt.Errorf("codec: compose: %w", err)
	}

	return Encoded{
		TransactionKey: key,
		WrappedKey:     wrapped,
		SegmentsBase64: segmentBase64(ciphertext),
	}, nil
}

// Decompose reverses Compose: it unwraps the transaction key with the
// client's encryption private key, Base64-decodes and concatenates the
// segments (which the engine has already ordered by SegmentNumber),
// AES-decrypts, and inflates back to the original payload bytes.
func Decompose(segmentsBase64 []string, wrappedKey []byte, clientDecryptKey *rsa.PrivateKey) ([]byte, error) {
	key, err := ebicscrypto.DecryptPKCS1v15(clientDecryptKey, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("codec: decompose: unwrap transaction key: %w", err)
	}

	var ciphertext []byte
	for i, seg := range segmentsBase64 {
		chunk, err := base64.StdEncoding.DecodeString(seg)
		if err != nil {
			return nil, fmt.Errorf("codec: decompose: segment %d: %w", i+1, err)
		}
		ciphertext = append(ciphertext, chunk...)
	}

	deflated, err := ebicscrypto.AESCBCDecrypt(key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("codec: decompose: %w", err)
	}

	payload, err := ebicscrypto.InflateZlib(deflated)
	if err != nil {
		return nil, fmt.Errorf("codec: decompose: %w", err)
	}
	return payload, nil
}

func segmentBase64(ciphertext []byte) []string {
	var segments []string
	for offset := 0; offset < len(ciphertext); offset += MaxSegmentBytes {
		end := offset + MaxSegmentBytes
		if end > len(ciphertext) {
			end = len(ciphertext)
		}
		segments = append(segments, base64.StdEncoding.EncodeToString(ciphertext[offset:end]))
	}
	if len(segments) == 0 {
		segments = []string{base64.StdEncoding.EncodeToString(nil)}
	}
	return segments
}
