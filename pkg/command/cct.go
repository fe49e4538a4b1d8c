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

// CctCommand uploads a SEPA Credit Transfer (pain.001) payload.
type CctCommand struct {
	cfg    *ebicsconfig.EbicsConfig
	params order.CctParams
}

// NewCctCommand creates the CCT command for the given payment payload.
func NewCctCommand(cfg *ebicsconfig.EbicsConfig, params order.CctParams) *CctCommand {
	return &CctCommand{cfg: cfg, params: params}
}

func (c *CctCommand) OrderType() string           { return "CCT" }
func (c *CctCommand) Direction() engine.Direction { return engine.Upload }
func (c *CctCommand) Secured() bool               { return true }

func (c *CctCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	return buildUploadInit(c.cfg, tc, c.OrderType(), c.params.PaymentXML)
}

func (c *CctCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *CctCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: CCT is an upload, no Receipt request")
}

func (c *CctCommand) Deserialize(payload []byte) (any, error) {
	return order.CctResult{}, nil
}

// buildUploadInit is the shared Initialisation-phase builder for the
// upload order types (CCT, CDD, SPR): compose the payload once, stash the
// remaining segments on tc, and return the request carrying the first
// segment plus DataEncryptionInfo.
func buildUploadInit(cfg *ebicsconfig.EbicsConfig, tc *engine.TransactionContext, orderType string, payload []byte) (*etree.Document, error) {
	bank := cfg.BankKeys()
	if bank == nil {
		return nil, fmt.Errorf("command: %s requires bank keys; run HPB first", orderType)
	}
	encoded, err := composeOrderData(cfg, payload)
	if err != nil {
		return nil, fmt.Errorf("command: composing %s order data: %w", orderType, err)
	}

	tc.TransactionKey = encoded.TransactionKey
	tc.NumSegments = len(encoded.SegmentsBase64)
	tc.UploadSegmentsBase64 = encoded.SegmentsBase64
	tc.WrappedTransactionKey = encoded.WrappedKey

	hdr, err := staticHeader(cfg, orderType, ebicsns.OrderAttrUploadZipped, true)
	if err != nil {
		return nil, err
	}
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}
	transfer := &ebicsxml.DataTransfer{
		DataEncryptionInfo: &ebicsxml.DataEncryptionInfo{
			EncryptionPubKeyDigest: bank.EncryptDigest[:],
			TransactionKey:         encoded.WrappedKey,
		},
		OrderDataBase64: encoded.SegmentsBase64[0],
	}
	return ebicsxml.BuildInitRequest(cfg.Version, hdr, mutable, transfer), nil
}
