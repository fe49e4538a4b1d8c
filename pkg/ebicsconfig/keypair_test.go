package ebicsconfig

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePEMKey(t *testing.T, bits int) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, bits)
	require.NoError(t, err)

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestLoadKeyPairAcceptsValidBitLength(t *testing.T) {
	path := writePEMKey(t, 2048)
	kp, err := LoadKeyPair(path, "A005")
	require.NoError(t, err)
	require.NotNil(t, kp.Private)
	require.Equal(t, "A005", kp.Version)
}

func TestLoadKeyPairRejectsUndersizedKey(t *testing.T) {
	path := writePEMKey(t, 1024)
	_, err := LoadKeyPair(path, "A005")
	require.Error(t, err)
}

func TestLoadKeyPairEmptyPathIsNilNil(t *testing.T) {
	kp, err := LoadKeyPair("", "A005")
	require.NoError(t, err)
	require.Nil(t, kp)
}

func TestKeyPairDigestMatchesPubKeyDigest(t *testing.T) {
	path := writePEMKey(t, 2048)
	kp, err := LoadKeyPair(path, "X002")
	require.NoError(t, err)

	digest := kp.Digest()
	require.Len(t, digest, 32)
	require.Equal(t, digest, kp.Digest(), "digest must be deterministic")
}
