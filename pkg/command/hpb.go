package command

import (
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// HpbCommand downloads the bank's authentication and encryption public
// keys. It is secured: unlike INI/HIA it runs after the
// client's own keys are already known to the bank out of band.
type HpbCommand struct {
	cfg *ebicsconfig.EbicsConfig
}

// NewHpbCommand creates the HPB command.
func NewHpbCommand(cfg *ebicsconfig.EbicsConfig) *HpbCommand {
	return &HpbCommand{cfg: cfg}
}

func (c *HpbCommand) OrderType() string           { return "HPB" }
func (c *HpbCommand) Direction() engine.Direction { return engine.Download }
func (c *HpbCommand) Secured() bool               { return true }

func (c *HpbCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	hdr, err := staticHeader(c.cfg, c.OrderType(), ebicsns.OrderAttrDownloadZipped, true)
	if err != nil {
		return nil, err
	}
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}
	return ebicsxml.BuildInitRequest(c.cfg.Version, hdr, mutable, nil), nil
}

func (c *HpbCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *HpbCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return receiptDoc(c.cfg, tc, receiptCode), nil
}

func (c *HpbCommand) Deserialize(payload []byte) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, fmt.Errorf("command: parsing HPB order data: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("command: HPB order data has no root element")
	}

	authKey, err := parsePubKeyValue(root.FindElement(".//AuthenticationPubKeyInfo/PubKeyValue/RSAKeyValue"))
	if err != nil {
		return nil, fmt.Errorf("command: HPB authentication key: %w", err)
	}
	encKey, err := parsePubKeyValue(root.FindElement(".//EncryptionPubKeyInfo/PubKeyValue/RSAKeyValue"))
	if err != nil {
		return nil, fmt.Errorf("command: HPB encryption key: %w", err)
	}
	cert, err := parseX509Data(root.FindElement(".//AuthenticationPubKeyInfo/X509Data"))
	if err != nil {
		return nil, fmt.Errorf("command: HPB authentication certificate: %w", err)
	}

	keys := order.BankKeys{
		AuthKey:       authKey,
		AuthDigest:    ebicscrypto.PubKeyDigest(authKey.N, big.NewInt(int64(authKey.E))),
		EncryptKey:    encKey,
		EncryptDigest: ebicscrypto.PubKeyDigest(encKey.N, big.NewInt(int64(encKey.E))),
		Certificate:   cert,
	}
	return order.HpbResult{Keys: keys}, nil
}

// parseX509Data reads the optional X509Certificate carried alongside a
// bank key's PubKeyValue. Not every bank wraps its keys in a certificate,
// so a nil el is not an error: it returns a nil certificate.
func parseX509Data(el *etree.Element) (*x509.Certificate, error) {
	if el == nil {
		return nil, nil
	}
	certEl := el.FindElement("./X509Certificate")
	if certEl == nil {
		return nil, nil
	}
	der, err := base64.StdEncoding.DecodeString(certEl.Text())
	if err != nil {
		return nil, fmt.Errorf("decoding X509Certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing X509Certificate: %w", err)
	}
	return cert, nil
}
