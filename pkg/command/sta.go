package command

import (
	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// StaCommand downloads an account statement (MT940).
type StaCommand struct {
	cfg    *ebicsconfig.EbicsConfig
	params order.StaParams
}

// NewStaCommand creates the STA command for the given statement period.
func NewStaCommand(cfg *ebicsconfig.EbicsConfig, params order.StaParams) *StaCommand {
	return &StaCommand{cfg: cfg, params: params}
}

func (c *StaCommand) OrderType() string           { return "STA" }
func (c *StaCommand) Direction() engine.Direction { return engine.Download }
func (c *StaCommand) Secured() bool               { return true }

func (c *StaCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	hdr, err := staticHeader(c.cfg, c.OrderType(), ebicsns.OrderAttrDownloadZipped, true)
	if err != nil {
		return nil, err
	}
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}
	doc := ebicsxml.BuildInitRequest(c.cfg.Version, hdr, mutable, nil)
	applyDateRange(doc, c.params.StartDate, c.params.EndDate)
	return doc, nil
}

func (c *StaCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *StaCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return receiptDoc(c.cfg, tc, receiptCode), nil
}

func (c *StaCommand) Deserialize(payload []byte) (any, error) {
	return order.StaResult{MT940Text: string(payload)}, nil
}
