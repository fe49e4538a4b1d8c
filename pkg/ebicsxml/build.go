package ebicsxml

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
)

// BuildUnsecuredRequest constructs an ebicsUnsecuredRequest document for
// INI/HIA: no AuthSignature, no encryption, a single compressed Base64
// order-data blob.
func BuildUnsecuredRequest(version string, header StaticHeader, orderDataBase64 string) *etree.Document {
	doc := etree.NewDocument()
	root := doc.CreateElement(ebicsns.ElUnsecuredRequest)
	root.CreateAttr("xmlns", ebicsns.NamespaceFor(version))
	root.CreateAttr(ebicsns.AttrVersion, version)
	root.CreateAttr(ebicsns.AttrRevision, "1")

	body := root.CreateElement(ebicsns.ElBody)
	dtParent := body.CreateElement("DataTransfer")
	orderData := dtParent.CreateElement(ebicsns.ElOrderData)
	orderData.SetText(orderDataBase64)

	writeHeaderInto(root, version, header, nil, false)
	return doc
}

// BuildInitRequest constructs a signed ebicsRequest for the Initialisation
// phase of a secured transaction (upload or download).
func BuildInitRequest(version string, header StaticHeader, mutable MutableHeader, transfer *DataTransfer) *etree.Document {
	doc := etree.NewDocument()
	root := newSecuredRoot(doc, version)
	writeHeaderInto(root, version, header, &mutable, true)
	writeBody(root, transfer)
	return doc
}

// BuildTransferRequest constructs a signed ebicsRequest for a Transfer
// phase segment. Upload transfers carry OrderData; download transfers
// carry an empty body (the bank supplies the data).
func BuildTransferRequest(version string, hostID string, mutable MutableHeader, transfer *DataTransfer) *etree.Document {
	doc := etree.NewDocument()
	root := newSecuredRoot(doc, version)

	staticHdr := StaticHeader{HostID: hostID}
	writeHeaderInto(root, version, staticHdr, &mutable, true)
	writeBody(root, transfer)
	return doc
}

// BuildReceiptRequest constructs the terminal Receipt-phase request for a
// download transaction: an empty body carrying only ReceiptCode.
func BuildReceiptRequest(version, hostID, transactionID string, receiptCode int) *etree.Document {
	doc := etree.NewDocument()
	root := newSecuredRoot(doc, version)

	mutable := MutableHeader{TransactionPhase: "Receipt", TransactionID: transactionID}
	writeHeaderInto(root, version, StaticHeader{HostID: hostID}, &mutable, true)

	body := root.CreateElement(ebicsns.ElBody)
	body.CreateAttr(ebicsns.AttrAuthenticate, "true")
	tr := body.CreateElement("TransactionReceipt")
	rc := tr.CreateElement(ebicsns.ElReceiptCode)
	rc.SetText(strconv.Itoa(receiptCode))
	return doc
}

func newSecuredRoot(doc *etree.Document, version string) *etree.Element {
	root := doc.CreateElement(ebicsns.ElRequest)
	root.CreateAttr("xmlns", ebicsns.NamespaceFor(version))
	root.CreateAttr("xmlns:ds", ebicsns.NsXMLDSig)
	root.CreateAttr(ebicsns.AttrVersion, version)
	root.CreateAttr(ebicsns.AttrRevision, "1")
	return root
}

// writeHeaderInto appends the header element (marked authenticate="true")
// holding StaticHeader and, when m is non-nil, mutable. When secured is
// true it also appends an AuthSignature placeholder to root, as a sibling
// of header outside the authenticated set; pkg/canon.Produce fills it in,
// and only the SignedInfo/Reference skeleton it expects is created here.
// The body is written separately by the caller.
func writeHeaderInto(root *etree.Element, version string, s StaticHeader, m *MutableHeader, secured bool) {
	header := root.CreateElement(ebicsns.ElHeader)
	header.CreateAttr(ebicsns.AttrAuthenticate, "true")

	static := header.CreateElement(ebicsns.ElStaticHeader)
	hostID := static.CreateElement(ebicsns.ElHostID)
	hostID.SetText(s.HostID)

	if m != nil && m.TransactionID != "" {
		txID := static.CreateElement(ebicsns.ElTransactionID)
		txID.SetText(m.TransactionID)
	}

	if m == nil || m.TransactionID == "" {
		nonce := static.CreateElement(ebicsns.ElNonce)
		nonce.SetText(fmt.Sprintf("%X", s.Nonce))
		ts := static.CreateElement(ebicsns.ElTimestamp)
		ts.SetText(s.Timestamp)
		partnerID := static.CreateElement(ebicsns.ElPartnerID)
		partnerID.SetText(s.PartnerID)
		userID := static.CreateElement(ebicsns.ElUserID)
		userID.SetText(s.UserID)
		if s.Product != "" {
			product := static.CreateElement(ebicsns.ElProduct)
			product.SetText(s.Product)
		}
		od := static.CreateElement(ebicsns.ElOrderDetails)
		orderType := od.CreateElement(ebicsns.ElOrderType)
		orderType.SetText(s.OrderDetails.OrderType)
		orderAttr := od.CreateElement(ebicsns.ElOrderAttribute)
		orderAttr.SetText(string(s.OrderDetails.OrderAttribute))
		od.CreateElement(ebicsns.ElStandardOrderParams)

		if secured && (len(s.BankAuthDigest) > 0 || len(s.BankCryptDigest) > 0) {
			digests := static.CreateElement(ebicsns.ElBankPubKeyDigests)
			auth := digests.CreateElement(ebicsns.ElAuthentication)
			auth.CreateAttr(ebicsns.AttrVersion, "X002")
			auth.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgDigestSHA256)
			auth.SetText(base64.StdEncoding.EncodeToString(s.BankAuthDigest))
			enc := digests.CreateElement(ebicsns.ElEncryption)
			enc.CreateAttr(ebicsns.AttrVersion, "E002")
			enc.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgDigestSHA256)
			enc.SetText(base64.StdEncoding.EncodeToString(s.BankCryptDigest))
		}
		secMedium := static.CreateElement(ebicsns.ElSecurityMedium)
		if s.SecurityMedium == "" {
			s.SecurityMedium = "0000"
		}
		secMedium.SetText(s.SecurityMedium)
	}

	if m != nil {
		mut := header.CreateElement(ebicsns.ElMutableHeader)
		phase := mut.CreateElement(ebicsns.ElTransactionPhase)
		phase.SetText(m.TransactionPhase)
		if m.SegmentNumber > 0 {
			seg := mut.CreateElement(ebicsns.ElSegmentNumber)
			seg.SetText(strconv.Itoa(m.SegmentNumber))
			if m.LastSegment {
				seg.CreateAttr(ebicsns.ElLastSegment, "true")
			}
		}
	}

	if secured {
		authSig := root.CreateElement(ebicsns.ElAuthSignature)
		signedInfo := authSig.CreateElement("ds:SignedInfo")
		c14n := signedInfo.CreateElement("ds:CanonicalizationMethod")
		c14n.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgC14N10)
		sigMethod := signedInfo.CreateElement("ds:SignatureMethod")
		sigMethod.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgSignatureRSA256)
		ref := signedInfo.CreateElement("ds:Reference")
		ref.CreateAttr("URI", ebicsns.AuthenticateReferenceURI)
		transforms := ref.CreateElement("ds:Transforms")
		transform := transforms.CreateElement("ds:Transform")
		transform.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgC14N10)
		digestMethod := ref.CreateElement("ds:DigestMethod")
		digestMethod.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgDigestSHA256)
		ref.CreateElement("ds:DigestValue")
		authSig.CreateElement("ds:SignatureValue")
	}
}

func writeBody(root *etree.Element, transfer *DataTransfer) {
	body := root.CreateElement(ebicsns.ElBody)
	body.CreateAttr(ebicsns.AttrAuthenticate, "true")
	if transfer == nil {
		return
	}
	dt := body.CreateElement(ebicsns.ElDataTransfer)
	if transfer.DataEncryptionInfo != nil {
		dei := dt.CreateElement(ebicsns.ElDataEncryptionInfo)
		dei.CreateAttr(ebicsns.AttrAuthenticate, "false")
		digest := dei.CreateElement(ebicsns.ElEncryptionPubKeyDigest)
		digest.CreateAttr(ebicsns.AttrVersion, "E002")
		digest.CreateAttr(ebicsns.AttrAlgorithm, ebicsns.AlgDigestSHA256)
		digest.SetText(base64.StdEncoding.EncodeToString(transfer.DataEncryptionInfo.EncryptionPubKeyDigest))
		key := dei.CreateElement(ebicsns.ElTransactionKey)
		key.SetText(base64.StdEncoding.EncodeToString(transfer.DataEncryptionInfo.TransactionKey))
	}
	if transfer.OrderDataBase64 != "" {
		orderData := dt.CreateElement(ebicsns.ElOrderData)
		orderData.SetText(transfer.OrderDataBase64)
	}
}

// ParseResponse extracts the common fields of an ebicsResponse or
// ebicsKeyManagementResponse document. Order-specific payload parsing
// (HPB key extraction, HPD parameter parsing, ...) lives in pkg/command.
func ParseResponse(doc *etree.Document) (ResponseEnvelope, error) {
	root := doc.Root()
	if root == nil {
		return ResponseEnvelope{}, fmt.Errorf("ebicsxml: empty response document")
	}

	var env ResponseEnvelope
	if el := root.FindElement(".//TransactionID"); el != nil {
		env.TransactionID = el.Text()
	}
	if el := root.FindElement(".//TransactionPhase"); el != nil {
		env.TransactionPhase = el.Text()
	}
	if el := root.FindElement(".//NumSegments"); el != nil {
		env.NumSegments, _ = strconv.Atoi(el.Text())
	}
	if el := root.FindElement(".//SegmentNumber"); el != nil {
		env.SegmentNumber, _ = strconv.Atoi(el.Text())
		env.LastSegment = el.SelectAttrValue(ebicsns.ElLastSegment, "false") == "true"
	}
	if el := root.FindElement(".//ReturnCode"); el != nil {
		env.TechnicalReturnCode = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElTechnicalReturnCode); el != nil {
		env.TechnicalReturnCode = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElBusinessReturnCode); el != nil {
		env.BusinessReturnCode = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElReportText); el != nil {
		env.ReportText = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElOrderData); el != nil {
		env.OrderDataBase64 = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElTransactionKey); el != nil {
		env.TransactionKeyB64 = el.Text()
	}
	if el := root.FindElement(".//" + ebicsns.ElEncryptionPubKeyDigest); el != nil {
		digest, err := base64.StdEncoding.DecodeString(el.Text())
		if err == nil {
			env.EncryptionPubKeyDigest = digest
		}
	}
	if env.TechnicalReturnCode == "" {
		return ResponseEnvelope{}, fmt.Errorf("ebicsxml: response has no return code")
	}
	return env, nil
}
