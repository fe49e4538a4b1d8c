package engine

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-ebics/pkg/canon"
	"github.com/sirosfoundation/go-ebics/pkg/codec"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicserr"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/order"
	"github.com/sirosfoundation/go-ebics/pkg/transport"
)

// fakeDownloadCommand is a minimal, single-segment download command used to
// exercise the engine's Initialisation -> Receipt path
// without pulling in a real order type from pkg/command.
type fakeDownloadCommand struct {
	version string
	hostID  string
}

func (c *fakeDownloadCommand) OrderType() string  { return "STA" }
func (c *fakeDownloadCommand) Direction() Direction { return Download }
func (c *fakeDownloadCommand) Secured() bool      { return true }

func (c *fakeDownloadCommand) BuildInitRequest(tc *TransactionContext) (*etree.Document, error) {
	header := ebicsxml.StaticHeader{
		HostID: c.hostID,
		OrderDetails: ebicsxml.OrderDetails{
			OrderType:      "STA",
			OrderAttribute: ebicsns.OrderAttrDownloadZipped,
		},
	}
	return ebicsxml.BuildInitRequest(c.version, header, ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}, nil), nil
}

func (c *fakeDownloadCommand) BuildTransferRequest(tc *TransactionContext, segmentNo int) (*etree.Document, error) {
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Transfer", TransactionID: tc.TransactionID, SegmentNumber: segmentNo}
	return ebicsxml.BuildTransferRequest(c.version, c.hostID, mutable, nil), nil
}

func (c *fakeDownloadCommand) BuildReceiptRequest(tc *TransactionContext, receiptCode int) (*etree.Document, error) {
	return ebicsxml.BuildReceiptRequest(c.version, c.hostID, tc.TransactionID, receiptCode), nil
}

func (c *fakeDownloadCommand) Deserialize(payload []byte) (any, error) {
	return order.StaResult{MT940Text: string(payload)}, nil
}

// buildFakeResponse assembles a minimal, correctly-shaped ebicsResponse
// document and signs it with bankAuthKey, mirroring the structural
// skeleton pkg/ebicsxml.BuildInitRequest produces for requests.
func buildFakeResponse(t *testing.T, bankAuthKey *rsa.PrivateKey, transactionID, phase string, numSegments, segmentNumber int, lastSegment bool, orderDataB64, transactionKeyB64 string) []byte {
	t.Helper()

	doc := etree.NewDocument()
	root := doc.CreateElement(ebicsns.ElResponse)
	root.CreateAttr("xmlns", ebicsns.H004)
	root.CreateAttr("xmlns:ds", ebicsns.NsXMLDSig)

	header := root.CreateElement(ebicsns.ElHeader)
	header.CreateAttr(ebicsns.AttrAuthenticate, "true")
	static := header.CreateElement(ebicsns.ElStaticHeader)
	static.CreateElement(ebicsns.ElTransactionID).SetText(transactionID)

	mutable := header.CreateElement(ebicsns.ElMutableHeader)
	mutable.CreateElement(ebicsns.ElTransactionPhase).SetText(phase)
	seg := mutable.CreateElement(ebicsns.ElSegmentNumber)
	seg.SetText(strconv.Itoa(segmentNumber))
	if lastSegment {
		seg.CreateAttr(ebicsns.ElLastSegment, "true")
	}
	mutable.CreateElement(ebicsns.ElReturnCode).SetText("000000")
	mutable.CreateElement(ebicsns.ElReportText).SetText("[EBICS_OK] OK")

	authSig := root.CreateElement(ebicsns.ElAuthSignature)
	signedInfo := authSig.CreateElement("ds:SignedInfo")
	ref := signedInfo.CreateElement("ds:Reference")
	ref.CreateAttr("URI", ebicsns.AuthenticateReferenceURI)
	ref.CreateElement("ds:DigestValue")
	authSig.CreateElement("ds:SignatureValue")

	body := root.CreateElement(ebicsns.ElBody)
	body.CreateAttr(ebicsns.AttrAuthenticate, "true")
	body.CreateElement(ebicsns.ElNumSegments).SetText(strconv.Itoa(numSegments))
	if orderDataB64 != "" {
		dt := body.CreateElement(ebicsns.ElDataTransfer)
		if transactionKeyB64 != "" {
			dei := dt.CreateElement(ebicsns.ElDataEncryptionInfo)
			dei.CreateElement(ebicsns.ElTransactionKey).SetText(transactionKeyB64)
		}
		dt.CreateElement(ebicsns.ElOrderData).SetText(orderDataB64)
	}

	require.NoError(t, canon.Produce(root, bankAuthKey))

	out, err := doc.WriteToBytes()
	require.NoError(t, err)
	return out
}

// TestEngineRunSingleSegmentDownloadIssuesExactlyOneReceipt asserts that a
// one-segment download response drives the engine straight to Receipt
// with ReceiptCode=0, and the decompressed payload comes back verbatim.
func TestEngineRunSingleSegmentDownloadIssuesExactlyOneReceipt(t *testing.T) {
	clientCrypt, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	bankAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	payload := []byte("MT940 statement fixture")
	encoded, err := codec.Compose(payload, &clientCrypt.PublicKey)
	require.NoError(t, err)
	require.Len(t, encoded.SegmentsBase64, 1)

	requestCount := 0
	var seenTransactionIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		reqDoc := etree.NewDocument()
		_, err := reqDoc.ReadFrom(r.Body)
		require.NoError(t, err)
		if txID := reqDoc.FindElement(".//" + ebicsns.ElTransactionID); txID != nil {
			seenTransactionIDs = append(seenTransactionIDs, txID.Text())
		}

		var resp []byte
		if requestCount == 1 {
			resp = buildFakeResponse(t, bankAuth, "0000000000000001", "Initialisation", 1, 1, true,
				encoded.SegmentsBase64[0], base64.StdEncoding.EncodeToString(encoded.WrappedKey))
		} else {
			resp = buildFakeResponse(t, bankAuth, "0000000000000001", "Receipt", 1, 1, true, "", "")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	cfg := &ebicsconfig.EbicsConfig{
		URL:       server.URL,
		Version:   "H004",
		HostID:    "HOST01",
		PartnerID: "PARTNER1",
		UserID:    "USER1",
		AuthKey:   &ebicsconfig.KeyPair{},
		CryptKey:  &ebicsconfig.KeyPair{Private: clientCrypt, Public: &clientCrypt.PublicKey},
	}
	clientAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cfg.AuthKey.Private = clientAuth
	cfg.AuthKey.Public = &clientAuth.PublicKey
	cfg.SetBankKeys(order.BankKeys{AuthKey: &bankAuth.PublicKey})

	e := New(cfg, transport.New(nil, nil), nil, nil)
	result, err := e.Run(context.Background(), &fakeDownloadCommand{version: "H004", hostID: "HOST01"})
	require.NoError(t, err)

	require.Equal(t, 2, requestCount, "engine must issue exactly one Initialisation and one Receipt request")
	require.Len(t, seenTransactionIDs, 1, "only the Receipt request carries an explicit TransactionID in this fixture")
	require.Equal(t, "0000000000000001", seenTransactionIDs[0])

	sta, ok := result.Payload.(order.StaResult)
	require.True(t, ok)
	require.Equal(t, string(payload), sta.MT940Text)
}

// TestEngineRunTwoSegmentDownloadUsesInitialisationTransactionKey asserts
// that a payload large enough to split into two segments still decodes
// correctly: the wrapped session key only ever arrives on the
// Initialisation response, and the engine must hold onto it across the
// Transfer response that carries the second segment.
func TestEngineRunTwoSegmentDownloadUsesInitialisationTransactionKey(t *testing.T) {
	clientCrypt, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	bankAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	clientAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	payload := make([]byte, codec.MaxSegmentBytes+4096)
	_, err = rand.Read(payload)
	require.NoError(t, err)
	encoded, err := codec.Compose(payload, &clientCrypt.PublicKey)
	require.NoError(t, err)
	require.Len(t, encoded.SegmentsBase64, 2, "payload must land in exactly two segments for this test to be meaningful")

	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		var resp []byte
		switch requestCount {
		case 1:
			resp = buildFakeResponse(t, bankAuth, "0000000000000004", "Initialisation", 2, 1, false,
				encoded.SegmentsBase64[0], base64.StdEncoding.EncodeToString(encoded.WrappedKey))
		case 2:
			resp = buildFakeResponse(t, bankAuth, "0000000000000004", "Transfer", 2, 2, true,
				encoded.SegmentsBase64[1], "")
		default:
			resp = buildFakeResponse(t, bankAuth, "0000000000000004", "Receipt", 2, 2, true, "", "")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	cfg := &ebicsconfig.EbicsConfig{
		URL:       server.URL,
		Version:   "H004",
		HostID:    "HOST01",
		PartnerID: "PARTNER1",
		UserID:    "USER1",
		AuthKey:   &ebicsconfig.KeyPair{Private: clientAuth, Public: &clientAuth.PublicKey},
		CryptKey:  &ebicsconfig.KeyPair{Private: clientCrypt, Public: &clientCrypt.PublicKey},
	}
	cfg.SetBankKeys(order.BankKeys{AuthKey: &bankAuth.PublicKey})

	e := New(cfg, transport.New(nil, nil), nil, nil)
	result, err := e.Run(context.Background(), &fakeDownloadCommand{version: "H004", hostID: "HOST01"})
	require.NoError(t, err)

	require.Equal(t, 3, requestCount, "engine must issue Initialisation, one Transfer, and Receipt for a two-segment download")

	sta, ok := result.Payload.(order.StaResult)
	require.True(t, ok)
	require.Equal(t, string(payload), sta.MT940Text)
}

// fakeUploadCommand is a minimal CCT-shaped upload command that composes
// its own OrderData and stashes the resulting segments on the
// TransactionContext, mirroring pkg/command's buildUploadInit/transferDoc.
type fakeUploadCommand struct {
	cfg     *ebicsconfig.EbicsConfig
	version string
	payload []byte
}

func (c *fakeUploadCommand) OrderType() string    { return "CCT" }
func (c *fakeUploadCommand) Direction() Direction { return Upload }
func (c *fakeUploadCommand) Secured() bool        { return true }

func (c *fakeUploadCommand) BuildInitRequest(tc *TransactionContext) (*etree.Document, error) {
	bank := c.cfg.BankKeys()
	encoded, err := codec.Compose(c.payload, bank.EncryptKey)
	if err != nil {
		return nil, err
	}
	tc.TransactionKey = encoded.TransactionKey
	tc.NumSegments = len(encoded.SegmentsBase64)
	tc.UploadSegmentsBase64 = encoded.SegmentsBase64
	tc.WrappedTransactionKey = encoded.WrappedKey

	header := ebicsxml.StaticHeader{
		HostID: c.cfg.HostID,
		OrderDetails: ebicsxml.OrderDetails{
			OrderType:      "CCT",
			OrderAttribute: ebicsns.OrderAttrUploadZipped,
		},
	}
	transfer := &ebicsxml.DataTransfer{
		DataEncryptionInfo: &ebicsxml.DataEncryptionInfo{
			EncryptionPubKeyDigest: bank.EncryptDigest[:],
			TransactionKey:         encoded.WrappedKey,
		},
		OrderDataBase64: encoded.SegmentsBase64[0],
	}
	return ebicsxml.BuildInitRequest(c.version, header, ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}, transfer), nil
}

func (c *fakeUploadCommand) BuildTransferRequest(tc *TransactionContext, segmentNo int) (*etree.Document, error) {
	mutable := ebicsxml.MutableHeader{
		TransactionPhase: "Transfer",
		SegmentNumber:    segmentNo,
		LastSegment:      segmentNo == tc.NumSegments,
		TransactionID:    tc.TransactionID,
	}
	transfer := &ebicsxml.DataTransfer{OrderDataBase64: tc.UploadSegmentsBase64[segmentNo-1]}
	return ebicsxml.BuildTransferRequest(c.version, c.cfg.HostID, mutable, transfer), nil
}

func (c *fakeUploadCommand) BuildReceiptRequest(tc *TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("fakeUploadCommand: upload has no Receipt phase")
}

func (c *fakeUploadCommand) Deserialize(payload []byte) (any, error) { return nil, nil }

// TestEngineRunTwoSegmentUploadEchoesTransactionID asserts that a payload
// large enough to split into two segments drives the engine through
// Initialisation and exactly one Transfer request, echoing the bank-issued
// TransactionID on the second segment and terminating without a Receipt
// (uploads have no Receipt phase).
func TestEngineRunTwoSegmentUploadEchoesTransactionID(t *testing.T) {
	bankCrypt, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	bankAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	clientAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// Random bytes barely compress, so a payload just over one segment's
	// worth of ciphertext lands reliably in the two-segment case without
	// risking a third segment from deflate/padding overhead.
	payload := make([]byte, codec.MaxSegmentBytes+4096)
	_, err = rand.Read(payload)
	require.NoError(t, err)

	var authDigest, cryptDigest [32]byte

	requestCount := 0
	var transferTransactionIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		reqDoc := etree.NewDocument()
		_, err := reqDoc.ReadFrom(r.Body)
		require.NoError(t, err)

		var resp []byte
		if requestCount == 1 {
			resp = buildFakeResponse(t, bankAuth, "0000000000000002", "Initialisation", 2, 1, false, "", "")
		} else {
			if txID := reqDoc.FindElement(".//" + ebicsns.ElTransactionID); txID != nil {
				transferTransactionIDs = append(transferTransactionIDs, txID.Text())
			}
			resp = buildFakeResponse(t, bankAuth, "0000000000000002", "Transfer", 2, 2, true, "", "")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	cfg := &ebicsconfig.EbicsConfig{
		URL:       server.URL,
		Version:   "H004",
		HostID:    "HOST01",
		PartnerID: "PARTNER1",
		UserID:    "USER1",
		AuthKey:   &ebicsconfig.KeyPair{Private: clientAuth, Public: &clientAuth.PublicKey},
		CryptKey:  &ebicsconfig.KeyPair{},
	}
	cfg.SetBankKeys(order.BankKeys{
		AuthKey:       &bankAuth.PublicKey,
		EncryptKey:    &bankCrypt.PublicKey,
		AuthDigest:    authDigest,
		EncryptDigest: cryptDigest,
	})

	e := New(cfg, transport.New(nil, nil), nil, nil)
	cmd := &fakeUploadCommand{cfg: cfg, version: "H004", payload: payload}
	result, err := e.Run(context.Background(), cmd)
	require.NoError(t, err)

	require.Equal(t, 2, requestCount, "engine must issue exactly one Initialisation and one Transfer request for a two-segment upload")
	require.Len(t, transferTransactionIDs, 1)
	require.Equal(t, "0000000000000002", transferTransactionIDs[0])
	require.Nil(t, result.Payload, "uploads carry no deserialized payload")
}

// TestEngineRunFailsWithProtocolErrorOnBadResponseSignature asserts that a
// response whose AuthSignature does not verify against the known bank key
// surfaces as an ebicserr.ProtocolError, not silently accepted.
func TestEngineRunFailsWithProtocolErrorOnBadResponseSignature(t *testing.T) {
	clientCrypt, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	bankAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	wrongKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	clientAuth, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := buildFakeResponse(t, wrongKey, "0000000000000003", "Initialisation", 1, 1, true, "", "")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp)
	}))
	defer server.Close()

	cfg := &ebicsconfig.EbicsConfig{
		URL:       server.URL,
		Version:   "H004",
		HostID:    "HOST01",
		PartnerID: "PARTNER1",
		UserID:    "USER1",
		AuthKey:   &ebicsconfig.KeyPair{Private: clientAuth, Public: &clientAuth.PublicKey},
		CryptKey:  &ebicsconfig.KeyPair{Private: clientCrypt, Public: &clientCrypt.PublicKey},
	}
	cfg.SetBankKeys(order.BankKeys{AuthKey: &bankAuth.PublicKey})

	e := New(cfg, transport.New(nil, nil), nil, nil)
	_, err = e.Run(context.Background(), &fakeDownloadCommand{version: "H004", hostID: "HOST01"})
	require.Error(t, err)

	var protoErr *ebicserr.ProtocolError
	require.ErrorAs(t, err, &protoErr)
}
