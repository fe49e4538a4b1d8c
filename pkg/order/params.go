// Package order defines the typed parameter and result records callers
// exchange with the client façade, one pair per order type. They are plain value types built and returned by
// the command deserializers, not shared mutable instances threaded through
// the engine.
package order

import (
	"crypto/rsa"
	"crypto/x509"
)

// IniParams announces the client's signature (A005) public key.
type IniParams struct{}

// IniResult carries the bank's technical/business acknowledgement.
type IniResult struct {
	TechnicalReturnCode string
	ReportText          string
}

// HiaParams announces the client's authentication (X002) and encryption
// (E002) public keys.
type HiaParams struct{}

// HiaResult carries the bank's technical/business acknowledgement.
type HiaResult struct {
	TechnicalReturnCode string
	ReportText          string
}

// HpbParams requests the bank's public keys; it carries no fields.
type HpbParams struct{}

// BankKeys holds the bank's authentication and encryption public keys
// together with their EBICS public-key digests, as populated by HPB.
// Certificate is populated only when the bank's HPB response wraps its
// authentication key in an X509Data block; banks that deliver bare
// PubKeyValue elements leave it nil.
type BankKeys struct {
	AuthKey       *rsa.PublicKey
	AuthDigest    [32]byte
	EncryptKey    *rsa.PublicKey
	EncryptDigest [32]byte
	Certificate   *x509.Certificate
}

// HpbResult carries the parsed bank keys.
type HpbResult struct {
	TechnicalReturnCode string
	ReportText          string
	Keys                BankKeys
}

// PtkParams requests the protocol log for a date range; an empty range
// requests the bank's default window.
type PtkParams struct {
	StartDate string // YYYY-MM-DD, optional
	EndDate   string // YYYY-MM-DD, optional
}

// PtkResult carries the raw protocol log text.
type PtkResult struct {
	TechnicalReturnCode string
	ReportText          string
	LogText             string
}

// StaParams requests an account statement for a date range.
type StaParams struct {
	StartDate string
	EndDate   string
}

// StaResult carries the MT940 statement text.
type StaResult struct {
	TechnicalReturnCode string
	ReportText          string
	MT940Text           string
}

// CctParams carries a SEPA Credit Transfer payload (pain.001) already
// serialized by the caller; composing pain.001 XML is out of core scope
//.
type CctParams struct {
	InitiatingParty string
	PaymentXML      []byte
}

// CctResult carries the bank's acknowledgement of the upload.
type CctResult struct {
	TechnicalReturnCode string
	BusinessReturnCode  string
	ReportText          string
}

// CddParams carries a SEPA Direct Debit payload (pain.008).
type CddParams struct {
	InitiatingParty string
	PaymentXML      []byte
}

// CddResult carries the bank's acknowledgement of the upload.
type CddResult struct {
	TechnicalReturnCode string
	BusinessReturnCode  string
	ReportText          string
}

// SprParams suspends the client's EBICS access; it carries no fields, its
// order data is a single ASCII space byte.
type SprParams struct{}

// SprResult carries the bank's acknowledgement.
type SprResult struct {
	TechnicalReturnCode string
	ReportText          string
}

// HpdParams requests the bank's parameter document; it carries no fields.
type HpdParams struct{}

// AccessParams describes the transport/connection parameters the bank
// reports in HPD.
type AccessParams struct {
	URL           string
	MaxLifetime   int
	MaxSegmentLen int
}

// ProtocolVersion describes one protocol version the bank supports.
type ProtocolVersion struct {
	Version   string
	Protocols []string
}

// ProtocolParams describes the bank's capabilities.
type ProtocolParams struct {
	Version            ProtocolVersion
	RecoverySupported  bool
	X509DataPersistent bool
}

// HpdResult carries the parsed bank parameters.
type HpdResult struct {
	TechnicalReturnCode string
	ReportText          string
	Access              AccessParams
	Protocol            ProtocolParams
}
