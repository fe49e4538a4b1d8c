// Package command implements the nine order-type commands EBICS exposes
// through this client: INI, HIA, HPB, PTK, STA, CCT, CDD,
// SPR, HPD. Each command is a small struct implementing engine.Command;
// there is no shared base class, in line with the "no deep hierarchy"
// design note — commands that need the same StaticHeader or
// order-data plumbing call the shared helpers in this file directly.
package command

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/codec"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
)

var zeroTime time.Time

// staticHeader builds the StaticHeader fields common to every order type:
// a fresh nonce and timestamp, the client's identity, and — for secured
// order types — the bank's public key digests.
func staticHeader(cfg *ebicsconfig.EbicsConfig, orderType string, attr ebicsns.OrderAttribute, secured bool) (ebicsxml.StaticHeader, error) {
	nonce, err := ebicscrypto.RandomNonce()
	if err != nil {
		return ebicsxml.StaticHeader{}, err
	}
	hdr := ebicsxml.StaticHeader{
		HostID:    cfg.HostID,
		Nonce:     nonce,
		Timestamp: ebicscrypto.UTCTimestamp(zeroTime),
		PartnerID: cfg.PartnerID,
		UserID:    cfg.UserID,
		Product:   cfg.Product,
		OrderDetails: ebicsxml.OrderDetails{
			OrderType:      orderType,
			OrderAttribute: attr,
		},
	}
	if secured {
		if bank := cfg.BankKeys(); bank != nil {
			hdr.BankAuthDigest = bank.AuthDigest[:]
			hdr.BankCryptDigest = bank.EncryptDigest[:]
		}
	}
	return hdr, nil
}

// composeOrderData wraps codec.Compose for the common single-shot case
// (SPR, CCT, CDD): one payload, one session key, N Base64 segments.
func composeOrderData(cfg *ebicsconfig.EbicsConfig, payload []byte) (codec.Encoded, error) {
	bank := cfg.BankKeys()
	return codec.Compose(payload, bank.EncryptKey)
}

// buildUnsecuredOrderData deflates and Base64-encodes payload for an
// ebicsUnsecuredRequest body (INI/HIA), which carries no encryption — the
// bank does not yet hold a key it could encrypt to.
func buildUnsecuredOrderData(payload []byte) (string, error) {
	deflated, err := ebicscrypto.DeflateZlib(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(deflated), nil
}

func transferDoc(cfg *ebicsconfig.EbicsConfig, tc *engine.TransactionContext, segmentNo int) *etree.Document {
	mutable := ebicsxml.MutableHeader{
		TransactionPhase: "Transfer",
		SegmentNumber:    segmentNo,
		LastSegment:      segmentNo == tc.NumSegments,
		TransactionID:    tc.TransactionID,
	}
	var transfer *ebicsxml.DataTransfer
	if tc.Direction == engine.Upload {
		transfer = &ebicsxml.DataTransfer{OrderDataBase64: tc.UploadSegmentsBase64[segmentNo-1]}
	}
	return ebicsxml.BuildTransferRequest(cfg.Version, cfg.HostID, mutable, transfer)
}

func receiptDoc(cfg *ebicsconfig.EbicsConfig, tc *engine.TransactionContext, receiptCode int) *etree.Document {
	return ebicsxml.BuildReceiptRequest(cfg.Version, cfg.HostID, tc.TransactionID, receiptCode)
}

// bigIntBytes returns the big-endian bytes of a small non-negative int,
// used for RSA public exponents (typically 65537).
func bigIntBytes(e int) []byte {
	return big.NewInt(int64(e)).Bytes()
}

// parsePubKeyValue reconstructs an RSA public key from an RSAKeyValue
// element carrying base64-encoded, big-endian Modulus and Exponent
// children — the inverse of pubKeyOrderData's encoding.
func parsePubKeyValue(rsaKeyValue *etree.Element) (*rsa.PublicKey, error) {
	if rsaKeyValue == nil {
		return nil, fmt.Errorf("command: missing RSAKeyValue element")
	}
	modEl := rsaKeyValue.FindElement("./Modulus")
	expEl := rsaKeyValue.FindElement("./Exponent")
	if modEl == nil || expEl == nil {
		return nil, fmt.Errorf("command: RSAKeyValue is missing Modulus or Exponent")
	}
	modBytes, err := base64.StdEncoding.DecodeString(modEl.Text())
	if err != nil {
		return nil, fmt.Errorf("command: decoding Modulus: %w", err)
	}
	expBytes, err := base64.StdEncoding.DecodeString(expEl.Text())
	if err != nil {
		return nil, fmt.Errorf("command: decoding Exponent: %w", err)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modBytes),
		E: int(new(big.Int).SetBytes(expBytes).Int64()),
	}, nil
}
