// Package ebicsxml provides typed builders and parsers for the EBICS
// request/response documents: ebicsUnsecuredRequest, ebicsRequest,
// ebicsResponse, and ebicsKeyManagementResponse, plus the StaticHeader,
// MutableHeader, and DataTransfer fragments every command shares.
//
// Elements are emitted and parsed by direct etree manipulation against
// the name constants in pkg/ebicsns, not by a reflective marshaler,
// keeping the wire shape of each element explicit at its call site.
package ebicsxml

import "github.com/sirosfoundation/go-ebics/pkg/ebicsns"

// OrderDetails identifies the banking operation a request performs
//.
type OrderDetails struct {
	OrderType      string
	OrderAttribute ebicsns.OrderAttribute
	OrderID        string
}

// StaticHeader carries the identity and order information that does not
// change across the segments of one transaction.
type StaticHeader struct {
	HostID        string
	Nonce         []byte
	Timestamp     string
	PartnerID     string
	UserID        string
	Product       string
	OrderDetails  OrderDetails
	SecurityMedium string
	// BankAuthDigest and BankCryptDigest are omitted from unsecured
	// (INI/HIA) requests, which run before any bank key is known.
	BankAuthDigest  []byte
	BankCryptDigest []byte
}

// MutableHeader carries the fields that change from phase to phase within
// one transaction: the current segment pointer and the transaction phase.
type MutableHeader struct {
	TransactionPhase string
	SegmentNumber    int
	LastSegment      bool
	// TransactionID is empty on the Initialisation request/response and
	// set on every subsequent one.
	TransactionID string
}

// DataEncryptionInfo carries the RSA-wrapped AES session key alongside the
// digest of the encryption key used to wrap it.
type DataEncryptionInfo struct {
	EncryptionPubKeyDigest []byte
	TransactionKey         []byte
}

// DataTransfer is the OrderData-bearing body of an Initialisation or
// Transfer request/response.
type DataTransfer struct {
	DataEncryptionInfo *DataEncryptionInfo // nil for download Transfer requests, which carry no payload
	OrderDataBase64    string
}

// ResponseEnvelope is the parsed common shape of ebicsResponse and
// ebicsKeyManagementResponse: return codes plus whatever the phase
// produced.
type ResponseEnvelope struct {
	TransactionID       string
	TransactionPhase    string
	SegmentNumber       int
	NumSegments         int
	LastSegment         bool
	TechnicalReturnCode string
	BusinessReturnCode  string
	ReportText          string
	OrderDataBase64     string
	TransactionKeyB64   string
	EncryptionPubKeyDigest []byte
}

// IsRecoverySync reports whether the technical return code is one of the
// EBICS recovery-sync advisories (codes 011000 through 011999). These are reportable,
// not something the engine acts on automatically.
func (r ResponseEnvelope) IsRecoverySync() bool {
	return len(r.TechnicalReturnCode) == 6 && r.TechnicalReturnCode >= "011000" && r.TechnicalReturnCode < "012000"
}
