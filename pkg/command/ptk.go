package command

import (
	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// PtkCommand downloads the client's protocol log.
type PtkCommand struct {
	cfg    *ebicsconfig.EbicsConfig
	params order.PtkParams
}

// NewPtkCommand creates the PTK command for the given date range.
func NewPtkCommand(cfg *ebicsconfig.EbicsConfig, params order.PtkParams) *PtkCommand {
	return &PtkCommand{cfg: cfg, params: params}
}

func (c *PtkCommand) OrderType() string           { return "PTK" }
func (c *PtkCommand) Direction() engine.Direction { return engine.Download }
func (c *PtkCommand) Secured() bool               { return true }

func (c *PtkCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	hdr, err := staticHeader(c.cfg, c.OrderType(), ebicsns.OrderAttrDownloadZipped, true)
	if err != nil {
		return nil, err
	}
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}
	doc := ebicsxml.BuildInitRequest(c.cfg.Version, hdr, mutable, nil)
	applyDateRange(doc, c.params.StartDate, c.params.EndDate)
	return doc, nil
}

func (c *PtkCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *PtkCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return receiptDoc(c.cfg, tc, receiptCode), nil
}

func (c *PtkCommand) Deserialize(payload []byte) (any, error) {
	return order.PtkResult{LogText: string(payload)}, nil
}

// applyDateRange fills StandardOrderParams/DateRange with an optional
// start/end date, shared by the download order types that accept one
// (PTK, STA).
func applyDateRange(doc *etree.Document, start, end string) {
	if start == "" && end == "" {
		return
	}
	params := doc.FindElement(".//" + ebicsns.ElStandardOrderParams)
	if params == nil {
		return
	}
	dateRange := params.CreateElement("DateRange")
	if start != "" {
		dateRange.CreateElement("Start").SetText(start)
	}
	if end != "" {
		dateRange.CreateElement("End").SetText(end)
	}
}
