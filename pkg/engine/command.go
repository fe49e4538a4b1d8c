package engine

import "github.com/beevik/etree"

// Command is the four-operation contract every order type implements
//, replacing a generic-base/per-order-subclass hierarchy
// with a single small interface.
type Command interface {
	OrderType() string
	Direction() Direction
	// Secured reports whether requests for this order type carry an
	// AuthSignature. INI and HIA are unsecured.
	Secured() bool

	BuildInitRequest(ctx *TransactionContext) (*etree.Document, error)
	// BuildTransferRequest builds one Transfer-phase request. Called for
	// secured transactions with more than one segment, upload or download.
	BuildTransferRequest(ctx *TransactionContext, segmentNo int) (*etree.Document, error)
	// BuildReceiptRequest builds the terminal Receipt-phase request with
	// the given ReceiptCode (0 success, non-zero client-side decode
	// failure). Called only for download commands.
	BuildReceiptRequest(ctx *TransactionContext, receiptCode int) (*etree.Document, error)

	// Deserialize parses the fully decrypted, decompressed order-data
	// payload into the order's typed result. The engine calls it only for
	// download commands; upload commands return an empty result record.
	Deserialize(payload []byte) (any, error)
}
