// Package ebicsns holds the namespace URIs, element/attribute name
// constants, and XPath templates shared by the EBICS request/response
// model and the enveloped XML-DSIG signer.
package ebicsns

// EBICS protocol namespaces, keyed by schema version.
const (
	H004 = "urn:org:ebics:H004"
	H005 = "urn:org:ebics:H005"
)

// Supporting namespaces referenced from EBICS request/response documents.
const (
	NsXMLDSig  = "http://www.w3.org/2000/09/xmldsig#"
	NsPain001  = "urn:iso:std:iso:20022:tech:xsd:pain.001.001.03"
	NsPain008  = "urn:iso:std:iso:20022:tech:xsd:pain.008.001.02"
	NsSigData  = "http://www.ebics.org/S001"
	NsXMLSchema = "http://www.w3.org/2001/XMLSchema-instance"
)

// Algorithm URIs used by the constrained XML-DSIG subset in pkg/canon.
const (
	AlgDigestSHA256    = "http://www.w3.org/2001/04/xmlenc#sha256"
	AlgSignatureRSA256 = "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"
	AlgC14N10          = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
)

// AuthenticateReferenceURI is the literal Reference/@URI EBICS uses to
// point at every element carrying authenticate="true", rather than at a
// single wsu:Id-tagged node.
const AuthenticateReferenceURI = "#xpointer(//*[@authenticate='true'])"

// AuthenticateXPath selects every element EBICS requires to be covered by
// AuthSignature.
const AuthenticateXPath = "//*[@authenticate='true']"

// NamespaceFor returns the EBICS namespace URI for a protocol version
// string ("H004" or "H005"), defaulting to H004 for anything else.
func NamespaceFor(version string) string {
	if version == "H005" {
		return H005
	}
	return H004
}

// Element and attribute local names used across the request/response
// model. Kept as named constants rather than magic strings so the wire
// format stays auditable in one place, per the "manual emission over
// reflective serializer" design note.
const (
	ElRequest              = "ebicsRequest"
	ElUnsecuredRequest     = "ebicsUnsecuredRequest"
	ElKeyManagementRequest = "ebicsKeyManagementRequest"
	ElResponse             = "ebicsResponse"
	ElKeyManagementResponse = "ebicsKeyManagementResponse"

	ElHeader           = "header"
	ElBody             = "body"
	ElStaticHeader     = "StaticHeader"
	ElMutableHeader    = "mutable"
	ElHostID           = "HostID"
	ElNonce            = "Nonce"
	ElTimestamp        = "Timestamp"
	ElPartnerID        = "PartnerID"
	ElUserID           = "UserID"
	ElProduct          = "Product"
	ElOrderDetails     = "OrderDetails"
	ElOrderType        = "OrderType"
	ElOrderAttribute   = "OrderAttribute"
	ElOrderID          = "OrderID"
	ElStandardOrderParams = "StandardOrderParams"
	ElBankPubKeyDigests = "BankPubKeyDigests"
	ElAuthentication   = "Authentication"
	ElEncryption       = "Encryption"
	ElSecurityMedium   = "SecurityMedium"
	ElNumSegments      = "NumSegments"
	ElTransactionID    = "TransactionID"
	ElTransactionPhase = "TransactionPhase"
	ElSegmentNumber    = "SegmentNumber"
	ElOrderData        = "OrderData"
	ElDataTransfer     = "DataTransfer"
	ElDataEncryptionInfo = "DataEncryptionInfo"
	ElEncryptionPubKeyDigest = "EncryptionPubKeyDigest"
	ElTransactionKey   = "TransactionKey"
	ElReturnCode       = "ReturnCode"
	ElReportText       = "ReportText"
	ElTechnicalReturnCode = "TechnicalReturnCode"
	ElBusinessReturnCode  = "BusinessReturnCode"
	ElReceiptCode      = "ReceiptCode"
	ElAuthSignature    = "AuthSignature"
	ElSignaturePubKeyOrderData = "SignaturePubKeyOrderData"
	ElHIARequestOrderData      = "HIARequestOrderData"
	ElMutable          = "mutable"
	ElLastSegment      = "LastSegment"
	ElFirstSegment     = "FirstSegment"

	AttrAuthenticate = "authenticate"
	AttrVersion      = "Version"
	AttrRevision     = "Revision"
	AttrAlgorithm    = "algorithm"
)

// OrderAttribute enumerates the values EBICS defines for
// OrderDetails.OrderAttribute.
type OrderAttribute string

const (
	OrderAttrDownloadZipped   OrderAttribute = "DZHNN"
	OrderAttrUploadZipped     OrderAttribute = "OZHNN"
	OrderAttrUploadSignedZip  OrderAttribute = "UZHNN"
	OrderAttrDownloadNoZip    OrderAttribute = "DZNNN"
)
