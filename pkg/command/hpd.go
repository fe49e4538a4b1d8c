package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/engine"
	"github.com/sirosfoundation/go-ebics/pkg/order"
)

// HpdCommand downloads the bank's parameter document: supported protocol
// versions, recovery support, and access/transport settings.
type HpdCommand struct {
	cfg *ebicsconfig.EbicsConfig
}

// NewHpdCommand creates the HPD command.
func NewHpdCommand(cfg *ebicsconfig.EbicsConfig) *HpdCommand {
	return &HpdCommand{cfg: cfg}
}

func (c *HpdCommand) OrderType() string           { return "HPD" }
func (c *HpdCommand) Direction() engine.Direction { return engine.Download }
func (c *HpdCommand) Secured() bool               { return true }

func (c *HpdCommand) BuildInitRequest(tc *engine.TransactionContext) (*etree.Document, error) {
	hdr, err := staticHeader(c.cfg, c.OrderType(), ebicsns.OrderAttrDownloadZipped, true)
	if err != nil {
		return nil, err
	}
	mutable := ebicsxml.MutableHeader{TransactionPhase: "Initialisation"}
	return ebicsxml.BuildInitRequest(c.cfg.Version, hdr, mutable, nil), nil
}

func (c *HpdCommand) BuildTransferRequest(tc *engine.TransactionContext, segmentNo int) (*etree.Document, error) {
	return transferDoc(c.cfg, tc, segmentNo), nil
}

func (c *HpdCommand) BuildReceiptRequest(tc *engine.TransactionContext, receiptCode int) (*etree.Document, error) {
	return receiptDoc(c.cfg, tc, receiptCode), nil
}

func (c *HpdCommand) Deserialize(payload []byte) (any, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, fmt.Errorf("command: parsing HPD order data: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("command: HPD order data has no root element")
	}

	var result order.HpdResult

	if el := root.FindElement(".//URL"); el != nil {
		result.Access.URL = el.Text()
	}
	if el := root.FindElement(".//MaxLifetime"); el != nil {
		result.Access.MaxLifetime, _ = strconv.Atoi(el.Text())
	}
	if el := root.FindElement(".//MaxSegmentLength"); el != nil {
		result.Access.MaxSegmentLen, _ = strconv.Atoi(el.Text())
	}

	if el := root.FindElement(".//Version"); el != nil {
		result.Protocol.Version.Version = el.SelectAttrValue("Version", "")
		var protocols []string
		for _, p := range el.FindElements("./Protocol") {
			protocols = append(protocols, strings.TrimSpace(p.Text()))
		}
		result.Protocol.Version.Protocols = protocols
	}
	if el := root.FindElement(".//RecoveryFlag"); el != nil {
		result.Protocol.RecoverySupported = el.Text() == "true" || el.Text() == "1"
	}
	if el := root.FindElement(".//X509DataPersistentFlag"); el != nil {
		result.Protocol.X509DataPersistent = el.Text() == "true" || el.Text() == "1"
	}

	return result, nil
}
