package command

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
)

func TestHiaBuildInitRequestCarriesBothKeys(t *testing.T) {
	authKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cryptKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &ebicsconfig.EbicsConfig{
		Version:   "H004",
		HostID:    "HOST01",
		PartnerID: "PARTNER1",
		UserID:    "USER1",
		AuthKey:   &ebicsconfig.KeyPair{Private: authKey, Public: &authKey.PublicKey, Version: "X002"},
		CryptKey:  &ebicsconfig.KeyPair{Private: cryptKey, Public: &cryptKey.PublicKey, Version: "E002"},
	}

	cmd := NewHiaCommand(cfg)
	require.False(t, cmd.Secured())

	doc, err := cmd.BuildInitRequest(nil)
	require.NoError(t, err)

	root := doc.Root()
	require.Equal(t, ebicsns.ElUnsecuredRequest, root.Tag)
	orderDataEl := root.FindElement(".//OrderData")
	require.NotNil(t, orderDataEl)

	deflated, err := base64.StdEncoding.DecodeString(orderDataEl.Text())
	require.NoError(t, err)
	inflated, err := ebicscrypto.InflateZlib(deflated)
	require.NoError(t, err)

	innerDoc := parseXML(t, inflated)
	require.Equal(t, ebicsns.ElHIARequestOrderData, innerDoc.Root().Tag)
	require.NotNil(t, innerDoc.FindElement(".//AuthenticationPubKeyInfo/PubKeyValue/RSAKeyValue/Modulus"))
	require.NotNil(t, innerDoc.FindElement(".//EncryptionPubKeyInfo/PubKeyValue/RSAKeyValue/Modulus"))
}

func TestHiaRequiresBothKeys(t *testing.T) {
	cfg := &ebicsconfig.EbicsConfig{Version: "H004"}
	cmd := NewHiaCommand(cfg)
	_, err := cmd.BuildInitRequest(nil)
	require.Error(t, err)
}
