package canon

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"
)

func buildSignableDoc(t *testing.T) *etree.Document {
	t.Helper()
	doc := etree.NewDocument()
	root := doc.CreateElement("ebicsRequest")
	root.CreateAttr("xmlns", "urn:org:ebics:H004")
	root.CreateAttr("xmlns:ds", "http://www.w3.org/2000/09/xmldsig#")

	header := root.CreateElement("header")
	header.CreateAttr("authenticate", "true")
	static := header.CreateElement("static")
	static.CreateElement("HostID").SetText("HOST01")
	static.CreateElement("Nonce").SetText("DEADBEEF")

	authSig := root.CreateElement("AuthSignature")
	signedInfo := authSig.CreateElement("ds:SignedInfo")
	signedInfo.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgC14NPlaceholder)
	reference := signedInfo.CreateElement("ds:Reference")
	reference.CreateAttr("URI", "#xpointer(//*[@authenticate='true'])")
	reference.CreateElement("ds:DigestValue")
	authSig.CreateElement("ds:SignatureValue")

	body := root.CreateElement("body")
	body.CreateAttr("authenticate", "true")
	body.CreateElement("DataTransfer").CreateElement("OrderData").SetText("bm90aGluZw==")

	return doc
}

// AlgC14NPlaceholder stands in for the real algorithm URI constant so this
// test file doesn't need to import pkg/ebicsns just to label an attribute
// neither Produce nor Verify inspects.
const AlgC14NPlaceholder = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"

func TestProduceVerifyRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := buildSignableDoc(t)
	require.NoError(t, Produce(doc.Root(), key))

	require.True(t, Verify(doc.Root(), &key.PublicKey))
}

func TestVerifyFailsOnTamperedAuthenticatedContent(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := buildSignableDoc(t)
	require.NoError(t, Produce(doc.Root(), key))

	hostID := doc.Root().FindElement(".//HostID")
	require.NotNil(t, hostID)
	hostID.SetText("HOST02")

	require.False(t, Verify(doc.Root(), &key.PublicKey))
}

func TestVerifyFailsOnWrongKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := buildSignableDoc(t)
	require.NoError(t, Produce(doc.Root(), key))

	require.False(t, Verify(doc.Root(), &other.PublicKey))
}

func TestVerifyFalseOnMalformedInput(t *testing.T) {
	doc := etree.NewDocument()
	doc.CreateElement("ebicsRequest")

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	require.False(t, Verify(doc.Root(), &key.PublicKey))
}

func TestCanonicalizationStableAcrossAttributeOrderAndOutsideWhitespace(t *testing.T) {
	docA := etree.NewDocument()
	rootA := docA.CreateElement("header")
	rootA.CreateAttr("authenticate", "true")
	rootA.CreateAttr("xmlns", "urn:org:ebics:H004")
	rootA.CreateElement("HostID").SetText("HOST01")

	docB := etree.NewDocument()
	rootB := docB.CreateElement("header")
	rootB.CreateAttr("xmlns", "urn:org:ebics:H004")
	rootB.CreateAttr("authenticate", "true")
	rootB.CreateElement("HostID").SetText("HOST01")

	outA, err := Canonicalize(rootA)
	require.NoError(t, err)
	outB, err := Canonicalize(rootB)
	require.NoError(t, err)
	require.Equal(t, outA, outB)
}
