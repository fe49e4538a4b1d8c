package engine

import (
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
)

// Direction identifies which way order data flows for a transaction.
type Direction int

const (
	Download Direction = iota
	Upload
)

func (d Direction) String() string {
	if d == Upload {
		return "Upload"
	}
	return "Download"
}

// Phase identifies where a transaction is in the Init/Transfer/Receipt
// state machine.
type Phase string

const (
	PhaseInitialisation Phase = "Initialisation"
	PhaseTransfer       Phase = "Transfer"
	PhaseReceipt        Phase = "Receipt"
	PhaseTerminated     Phase = "Terminated"
)

// TransactionContext is the short-lived record for one logical EBICS
// transaction. It is created fresh per call and never shared
// across goroutines; the engine mutates it in place as phases advance.
type TransactionContext struct {
	Direction      Direction
	OrderType      string
	OrderAttribute ebicsns.OrderAttribute

	TransactionID string // 16 hex chars once the Initialisation response arrives; empty before that
	NumSegments   int
	SegmentNumber int
	LastSegment   bool

	// TransactionKey is the 16-byte AES session key the client generates
	// for an upload (constant for the transaction's lifetime). Downloads
	// leave it empty: the bank's RSA-wrapped key is kept in
	// WrappedTransactionKey and unwrapped only while decoding the payload.
	TransactionKey []byte

	Phase Phase

	// UploadSegmentsBase64 holds pre-encrypted segments awaiting transfer,
	// in order, for an upload transaction.
	UploadSegmentsBase64 []string

	// DownloadSegmentsBase64 accumulates OrderData segments as they arrive
	// on a download transaction, indexed by SegmentNumber-1.
	DownloadSegmentsBase64 []string

	WrappedTransactionKey []byte
}

// NextPhase reports the phase that should follow the current one, given
// whether more segments remain. It encodes the Init -> Transfer -> Receipt
// / Terminated transitions without prescribing when the engine calls it.
func (tc *TransactionContext) NextPhase() Phase {
	switch tc.Phase {
	case PhaseInitialisation:
		if tc.NumSegments <= 1 {
			if tc.Direction == Download {
				return PhaseReceipt
			}
			return PhaseTerminated
		}
		return PhaseTransfer
	case PhaseTransfer:
		if tc.LastSegment {
			if tc.Direction == Download {
				return PhaseReceipt
			}
			return PhaseTerminated
		}
		return PhaseTransfer
	case PhaseReceipt:
		return PhaseTerminated
	default:
		return PhaseTerminated
	}
}
