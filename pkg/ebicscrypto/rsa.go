package ebicscrypto

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

// SignPKCS1v15 signs message with the given RSA private key using
// SHA-256 / PKCS#1 v1.5, the only signature scheme EBICS A005 supports.
// A006 (RSASSA-PSS) is explicitly out of scope.
func SignPKCS1v15(key *rsa.PrivateKey, message []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("ebicscrypto: signing key is required")
	}
	digest := sha256.Sum256(message)
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: rsa sign: %w", err)
	}
	return sig, nil
}

// VerifyPKCS1v15 verifies a SHA-256 / PKCS#1 v1.5 signature. It never
// returns an error for a bad signature: a mismatch is reported as
// ok == false so callers can treat any malformed input uniformly.
func VerifyPKCS1v15(pub *rsa.PublicKey, message, signature []byte) bool {
	if pub == nil || len(signature) == 0 {
		return false
	}
	digest := sha256.Sum256(message)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], signature) == nil
}

// EncryptPKCS1v15 RSA-wraps data (the 16-byte transaction key, in
// practice) using the bank's encryption public key with PKCS#1 v1.5
// padding, as EBICS requires for DataEncryptionInfo/TransactionKey.
func EncryptPKCS1v15(pub *rsa.PublicKey, data []byte) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("ebicscrypto: encryption key is required")
	}
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, pub, data)
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: rsa encrypt: %w", err)
	}
	return ct, nil
}

// DecryptPKCS1v15 unwraps an RSA-wrapped transaction key with the
// client's encryption private key.
func DecryptPKCS1v15(key *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	if key == nil {
		return nil, fmt.Errorf("ebicscrypto: decryption key is required")
	}
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, key, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ebicscrypto: rsa decrypt: %w", err)
	}
	return pt, nil
}
