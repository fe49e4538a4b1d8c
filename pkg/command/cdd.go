package command

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// CddCommand uploads a SEPA Direct Debit (pain.008) payload.
type CddCommand struct {
	cfg    *ebicsconfig.EbicsConfig
	params order.CddParams
}

// NewCddCommand creates the CDD command for the given payment payload.
func NewCddCommand(cfg *ebicsconfig.EbicsConfig, params order.CddParams) *CddCommand {
	return &CddCommand{cfg: cfg, params: params}
}

func (c *CddCommand) OrderType() string           { return "CDD" }
func (c *CddCommand) Direction() engine.Direction { return engine.Upload }
func (c *CddCommand) Secured() bool               { return true }

func (c *CddCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	return buildUploadInit(c.cfg, tc, c.OrderType(), c.params.PaymentXML)
}

func (c *CddCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *CddCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: CDD is an upload, no Receipt request")
}

func (c *CddCommand) Deserialize(payload []byte) (any, error) {
	return order.CddResult{}, nil
}
