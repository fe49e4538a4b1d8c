package command

import (
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// IniCommand announces the client's signature (A005) public key to the
// bank. It is unsecured: the bank does not yet hold a key it could verify
// a signature against.
type IniCommand struct {
	cfg *ebicsconfig.EbicsConfig
}

// NewIniCommand creates the INI command for cfg's signature key.
func NewIniCommand(cfg *ebicsconfig.EbicsConfig) *IniCommand {
	return &IniCommand{cfg: cfg}
}

func (c *IniCommand) OrderType() string       { return "INI" }
func (c *IniCommand) Direction() engine.Direction { return engine.Upload }
func (c *IniCommand) Secured() bool           { return false }

func (c *IniCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	if c.cfg.SignKey == nil {
		return nil, fmt.Errorf("command: INI requires a signature key")
	}
	inner := pubKeyOrderData(c.cfg, ebicsns.ElSignaturePubKeyOrderData, "SignaturePubKeyInfo", "SignatureVersion", c.cfg.SignKey)
	innerBytes, err := inner.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("command: serializing SignaturePubKeyOrderData: %w", err)
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

func (c *IniCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: INI is single-phase, no Transfer request")
}

func (c *IniCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: INI is single-phase, no Receipt request")
}

func (c *IniCommand) Deserialize(payload []byte) (any, error) {
	return order.IniResult{}, nil
}

// pubKeyOrderData builds the small inner XML EBICS wraps around a bare RSA
// public key for INI/HIA:
//
//	<root><PartnerID/><UserID/><Info><PubKeyValue><RSAKeyValue>
//	  <Modulus/><Exponent/></RSAKeyValue></PubKeyValue>
//	<SignatureVersion/></Info></root>
//
// with the modulus/exponent carried as base64 of their big-endian bytes.
func pubKeyOrderData(cfg *ebicsconfig.EbicsConfig, rootTag, infoTag, versionTag string, key *ebicsconfig.KeyPair) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(rootTag)
	root.CreateAttr("xmlns", ebicsns.NamespaceFor(cfg.Version))

	root.CreateElement(ebicsns.ElPartnerID).SetText(cfg.PartnerID)
	root.CreateElement(ebicsns.ElUserID).SetText(cfg.UserID)

	info := root.CreateElement(infoTag)
	rsaKeyValue := info.CreateElement("PubKeyValue").CreateElement("RSAKeyValue")
	rsaKeyValue.CreateElement("Modulus").SetText(encodeBigBytes(key.Public.N.Bytes()))
	rsaKeyValue.CreateElement("Exponent").SetText(encodeBigBytes(big.NewInt(int64(key.Public.E)).Bytes()))
	info.CreateElement(versionTag).SetText(key.Version)

	return doc
}

func encodeBigBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
