package engine

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/canon"
	"github.com/sirosfoundation/go-ebics/pkg/codec"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsconfig"
	"github.com/sirosfoundation/go-ebics/pkg/ebicserr"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsxml"
	"github.com/sirosfoundation/go-ebics/pkg/transport"
)

// Engine drives one transaction at a time to completion. It is safe for
// concurrent use across independent calls to Run: each call owns its own
// TransactionContext, and the only state Engine shares across goroutines
// is the read-mostly EbicsConfig and the pooled transport.Client
//.
type Engine struct {
	cfg       *ebicsconfig.EbicsConfig
	transport *transport.Client
	recovery  *RecoveryLog
	log       *slog.Logger
}

// New creates an Engine bound to cfg and transport. A nil logger disables
// logging; a nil recovery log creates one internally.
func New(cfg *ebicsconfig.EbicsConfig, tr *transport.Client, recovery *RecoveryLog, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if recovery == nil {
		recovery = NewRecoveryLog(log)
	}
	return &Engine{cfg: cfg, transport: tr, recovery: recovery, log: log}
}

// Result is what Run returns: the bank's return codes plus, for download
// commands, the typed payload the command's Deserialize produced.
type Result struct {
	Envelope ebicsxml.ResponseEnvelope
	Payload  any
}

// Run drives cmd through Initialisation and, for secured transactions,
// Transfer (when there is more than one segment) and Receipt (for
// downloads). Bank-reported non-zero return codes
// are returned in Result, not as an error; an error return means the
// transaction could not be completed at all (transport failure, signature
// verification failure, malformed response).
func (e *Engine) Run(ctx context.Context, cmd Command) (Result, error) {
	tc := &TransactionContext{
		Direction: cmd.Direction(),
		OrderType: cmd.OrderType(),
		Phase:     PhaseInitialisation,
	}

	initDoc, err := cmd.BuildInitRequest(tc)
	if err != nil {
		return Result{}, &ebicserr.CreateRequestError{OrderType: cmd.OrderType(), Err: err}
	}

	env, err := e.roundTrip(ctx, tc, initDoc, cmd.Secured())
	if err != nil {
		return Result{}, err
	}
	e.log.Info("ebics initialisation", "order_type", cmd.OrderType(), "technical_return_code", env.TechnicalReturnCode)

	if !cmd.Secured() {
		// INI/HIA: single unsecured request/response, no segmentation.
		return Result{Envelope: env}, nil
	}

	tc.TransactionID = env.TransactionID
	tc.NumSegments = env.NumSegments
	tc.SegmentNumber = env.SegmentNumber
	tc.LastSegment = env.LastSegment
	if tc.Direction == Download {
		tc.DownloadSegmentsBase64 = append(tc.DownloadSegmentsBase64, env.OrderDataBase64)
		if env.TransactionKeyB64 != "" {
			wrappedKey, err := base64.StdEncoding.DecodeString(env.TransactionKeyB64)
			if err != nil {
				return Result{}, &ebicserr.DeserializationError{Element: "TransactionKey", Err: err}
			}
			tc.WrappedTransactionKey = wrappedKey
		}
	}
	if env.IsRecoverySync() {
		e.recovery.Record(tc.TransactionID, env.TechnicalReturnCode, env.ReportText)
	}
	if tc.NumSegments > 1 && tc.TransactionID == "" {
		return Result{}, fmt.Errorf("%w: multi-segment transaction started without a TransactionID", ebicserr.ErrTransactionState)
	}

	tc.Phase = tc.NextPhase()
	for tc.Phase == PhaseTransfer {
		nextSegment := tc.SegmentNumber + 1
		doc, buildErr := cmd.BuildTransferRequest(tc, nextSegment)
		if buildErr != nil {
			return Result{}, &ebicserr.CreateRequestError{OrderType: cmd.OrderType(), Err: buildErr}
		}
		env, err = e.roundTrip(ctx, tc, doc, true)
		if err != nil {
			return Result{}, err
		}
		tc.SegmentNumber = env.SegmentNumber
		tc.LastSegment = env.LastSegment
		if tc.Direction == Download {
			tc.DownloadSegmentsBase64 = append(tc.DownloadSegmentsBase64, env.OrderDataBase64)
		}
		if env.IsRecoverySync() {
			e.recovery.Record(tc.TransactionID, env.TechnicalReturnCode, env.ReportText)
		}
		tc.Phase = tc.NextPhase()
	}

	var payload []byte
	var decodeErr error
	if tc.Direction == Download {
		payload, decodeErr = e.decodeDownload(tc)
	}

	if tc.Phase == PhaseReceipt {
		receiptCode := 0
		if decodeErr != nil {
			receiptCode = 1
		}
		doc, buildErr := cmd.BuildReceiptRequest(tc, receiptCode)
		if buildErr != nil {
			return Result{}, &ebicserr.CreateRequestError{OrderType: cmd.OrderType(), Err: buildErr}
		}
		env, err = e.roundTrip(ctx, tc, doc, true)
		if err != nil {
			return Result{}, err
		}
		tc.Phase = PhaseTerminated
	}

	if decodeErr != nil {
		return Result{}, &ebicserr.CryptoError{Operation: "decode download payload", Err: decodeErr}
	}

	var result any
	if tc.Direction == Download {
		result, err = cmd.Deserialize(payload)
		if err != nil {
			return Result{}, &ebicserr.DeserializationError{Element: "OrderData", Err: err}
		}
	}

	return Result{Envelope: env, Payload: result}, nil
}

// roundTrip signs (if secured) doc, posts it, parses the response, and
// verifies the response signature (if secured) before returning its
// envelope.
func (e *Engine) roundTrip(ctx context.Context, tc *TransactionContext, doc *etree.Document, secured bool) (ebicsxml.ResponseEnvelope, error) {
	if secured {
		if e.cfg.AuthKey == nil || e.cfg.AuthKey.Private == nil {
			return ebicsxml.ResponseEnvelope{}, &ebicserr.ConfigurationError{Field: "AuthKey", Err: fmt.Errorf("authentication private key is required to sign requests")}
		}
		if err := canon.Produce(doc.Root(), e.cfg.AuthKey.Private); err != nil {
			return ebicsxml.ResponseEnvelope{}, &ebicserr.CryptoError{Operation: "sign request", Err: err}
		}
	}

	body, err := doc.WriteToBytes()
	if err != nil {
		return ebicsxml.ResponseEnvelope{}, &ebicserr.CreateRequestError{OrderType: tc.OrderType, Err: err}
	}

	respBytes, err := e.transport.Post(ctx, e.cfg.URL, body)
	if err != nil {
		return ebicsxml.ResponseEnvelope{}, &ebicserr.TransportError{URL: e.cfg.URL, Err: err}
	}

	respDoc := etree.NewDocument()
	if err := respDoc.ReadFromBytes(respBytes); err != nil {
		return ebicsxml.ResponseEnvelope{}, &ebicserr.DeserializationError{Element: "root", Err: err}
	}

	if secured {
		bank := e.cfg.BankKeys()
		if bank == nil || bank.AuthKey == nil {
			return ebicsxml.ResponseEnvelope{}, &ebicserr.ConfigurationError{Field: "BankKeys", Err: fmt.Errorf("bank authentication key is not yet known; run HPB first")}
		}
		if !canon.Verify(respDoc.Root(), bank.AuthKey) {
			return ebicsxml.ResponseEnvelope{}, &ebicserr.ProtocolError{Envelope: ebicserr.ErrorEnvelope{ReportText: "bank response signature verification failed"}}
		}
	}

	env, err := ebicsxml.ParseResponse(respDoc)
	if err != nil {
		return ebicsxml.ResponseEnvelope{}, &ebicserr.DeserializationError{Element: "response", Err: err}
	}
	return env, nil
}

// decodeDownload reassembles and decrypts a download's accumulated
// segments. The wrapped session key is only ever carried on the
// Initialisation response, so it must come from tc.WrappedTransactionKey
// (captured there), not from whichever response happened to arrive last.
func (e *Engine) decodeDownload(tc *TransactionContext) ([]byte, error) {
	if e.cfg.CryptKey == nil || e.cfg.CryptKey.Private == nil {
		return nil, fmt.Errorf("encryption private key is required to decode download payload")
	}
	if len(tc.WrappedTransactionKey) == 0 {
		return nil, fmt.Errorf("initialisation response carried no TransactionKey")
	}
	return codec.Decompose(tc.DownloadSegmentsBase64, tc.WrappedTransactionKey, e.cfg.CryptKey.Private)
}
