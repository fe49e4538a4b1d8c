package command

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// SprCommand suspends the client's EBICS access. Its order data is a
// single ASCII space byte, signed and encrypted like any other upload
//.
type SprCommand struct {
	cfg *ebicsconfig.EbicsConfig
}

// NewSprCommand creates the SPR command.
func NewSprCommand(cfg *ebicsconfig.EbicsConfig) *SprCommand {
	return &SprCommand{cfg: cfg}
}

func (c *SprCommand) OrderType() string           { return "SPR" }
func (c *SprCommand) Direction() engine.Direction { return engine.Upload }
func (c *SprCommand) Secured() bool               { return true }

func (c *SprCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	return buildUploadInit(c.cfg, tc, c.OrderType(), []byte{' '})
}

func (c *SprCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *SprCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return nil, fmt.Errorf("command: SPR is an upload, no Receipt request")
}

func (c *SprCommand) Deserialize(payload []byte) (any, error) {
	return order.SprResult{}, nil
}
