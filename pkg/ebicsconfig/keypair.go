package ebicsconfig

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
)

// minKeyBits and maxKeyBits bound the RSA key sizes EBICS accepts.
const (
	minKeyBits = 2048
	maxKeyBits = 4096
)

// KeyPair is an RSA key plus its EBICS version tag (A005/X002/E002), the
// time it was generated or loaded, and an optional X.509 certificate — the
// unit callers supply for each of the three EBICS key roles.
type KeyPair struct {
	Private   *rsa.PrivateKey
	Public    *rsa.PublicKey
	Version   string // A005, X002, or E002
	Timestamp time.Time
	Cert      *x509.Certificate // optional
}

// Digest returns the EBICS public-key digest for this key pair
// (ebicscrypto.PubKeyDigest over the key's exponent and modulus).
func (k *KeyPair) Digest() [32]byte {
	return ebicscrypto.PubKeyDigest(k.Public.N, big.NewInt(int64(k.Public.E)))
}

// Certificate returns the X.509 certificate loaded alongside this key
// pair, or nil if the key came without one.
func (k *KeyPair) Certificate() *x509.Certificate {
	return k.Cert
}

// LoadKeyPair reads a PEM file containing an RSA private key (and,
// optionally, one or more certificates) and returns a KeyPair tagged with
// version. An empty path is valid for callers that only ever act as a
// verifier for that role and returns nil, nil.
func LoadKeyPair(path, version string) (*KeyPair, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebicsconfig: reading key file %s: %w", path, err)
	}

	kp := &KeyPair{Version: version, Timestamp: time.Now()}

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("ebicsconfig: parsing PKCS#1 private key in %s: %w", path, err)
			}
			kp.Private = key
			kp.Public = &key.PublicKey
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("ebicsconfig: parsing PKCS#8 private key in %s: %w", path, err)
			}
			rsaKey, ok := key.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("ebicsconfig: key in %s is not RSA", path)
			}
			kp.Private = rsaKey
			kp.Public = &rsaKey.PublicKey
		case "CERTIFICATE":
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("ebicsconfig: parsing certificate in %s: %w", path, err)
			}
			kp.Cert = cert
			if kp.Public == nil {
				if pub, ok := cert.PublicKey.(*rsa.PublicKey); ok {
					kp.Public = pub
				}
			}
		}
	}

	if kp.Public == nil {
		return nil, fmt.Errorf("ebicsconfig: no RSA key or certificate found in %s", path)
	}
	if bits := kp.Public.N.BitLen(); bits < minKeyBits || bits > maxKeyBits {
		return nil, fmt.Errorf("ebicsconfig: key in %s is %d bits, EBICS requires %d-%d", path, bits, minKeyBits, maxKeyBits)
	}
	return kp, nil
}

// PublicKeyFromDigestSource loads a bare RSA public key from a PEM file,
// for the (uncommon) case a bank public key arrives out of band rather
// than through HPB.
func PublicKeyFromDigestSource(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ebicsconfig: reading public key file %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("ebicsconfig: no PEM block found in %s", path)
	}
	switch block.Type {
	case "PUBLIC KEY":
		key, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("ebicsconfig: parsing public key in %s: %w", path, err)
		}
		rsaKey, ok := key.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ebicsconfig: key in %s is not RSA", path)
		}
		return rsaKey, nil
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("ebicsconfig: parsing certificate in %s: %w", path, err)
		}
		rsaKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("ebicsconfig: certificate in %s is not RSA", path)
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("ebicsconfig: unsupported PEM block type %q in %s", block.Type, path)
	}
}
