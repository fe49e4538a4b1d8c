package command

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// HiaCommand announces the client's authentication (X002) and encryption
// (E002) public keys. Like INI, it is unsecured.
type HiaCommand struct {
	cfg *ebicsconfig.EbicsConfig
}

// NewHiaCommand creates the HIA command for cfg's auth/crypt key pair.
func NewHiaCommand(cfg *ebicsconfig.EbicsConfig) *HiaCommand {
	return &HiaCommand{cfg: cfg}
}

func (c *HiaCommand) OrderType() string           { return "HIA" }
func (c *HiaCommand) Direction() engine.Direction { return engine.Upload }
func (c *HiaCommand) Secured() bool               { return false }

func (c *HiaCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	if c.cfg.AuthKey == nil || c.cfg.CryptKey == nil {
		return nil, fmt.Errorf("command: HIA requires both an authentication and an encryption key")
	}
	inner := hiaOrderData(c.cfg)
	innerBytes, err := inner.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("command: serializing HIARequestOrderData: %w", err)
	}
	orderDataB64, err := buildUnsecuredOrderData(innerBytes)
	if err != nil {
		return nil, err
	}
	hdr, err := staticHeader(c.cfg, c.OrderType(), ebicsns.OrderAttrUploadZipped, false)
	if err != nil {
		return nil, err
	}
	return ebicsxml.BuildUnsecuredRequest(c.cfg.Version, hdr, orderDataB64), nil
}

func (c *HiaCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: HIA is single-phase, no Transfer request")
}

func (c *HiaCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: HIA is single-phase, no Receipt request")
}

func (c *HiaCommand) Deserialize(payload []byte) (any, error) {
	return order.HiaResult{}, nil
}

// hiaOrderData wraps both keys under a single HIARequestOrderData root,
// one Info block per key, following the same shape pubKeyOrderData builds
// for INI's single-key SignaturePubKeyOrderData.
func hiaOrderData(cfg *ebicsconfig.EbicsConfig) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(ebicsns.ElHIARequestOrderData)
	root.CreateAttr("xmlns", ebicsns.NamespaceFor(cfg.Version))
	root.CreateElement(ebicsns.ElPartnerID).SetText(cfg.PartnerID)
	root.CreateElement(ebicsns.ElUserID).SetText(cfg.UserID)

	authInfo := root.CreateElement("AuthenticationPubKeyInfo")
	authRSA := authInfo.CreateElement("PubKeyValue").CreateElement("RSAKeyValue")
	authRSA.CreateElement("Modulus").SetText(encodeBigBytes(cfg.AuthKey.Public.N.Bytes()))
	authRSA.CreateElement("Exponent").SetText(encodeBigBytes(bigIntBytes(cfg.AuthKey.Public.E)))
	authInfo.CreateElement("AuthenticationVersion").SetText(cfg.AuthKey.Version)

	encInfo := root.CreateElement("EncryptionPubKeyInfo")
	encRSA := encInfo.CreateElement("PubKeyValue").CreateElement("RSAKeyValue")
	encRSA.CreateElement("Modulus").SetText(encodeBigBytes(cfg.CryptKey.Public.N.Bytes()))
	encRSA.CreateElement("Exponent").SetText(encodeBigBytes(bigIntBytes(cfg.CryptKey.Public.E)))
	encInfo.CreateElement("EncryptionVersion").SetText(cfg.CryptKey.Version)

	return doc
}
