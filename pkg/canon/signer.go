package canon

import (
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sirosfoundation/go-ebics/pkg/ebicscrypto"
	"github.com/sirosfoundation/go-ebics/pkg/ebicsns"
)

// Produce computes and fills in the AuthSignature element already present
// under root: it digests every element flagged authenticate="true" in
// document order, signs the resulting SignedInfo with key, and writes
// DigestValue/SignatureValue as base64 text. The caller is responsible for
// having built the AuthSignature/SignedInfo/Reference skeleton with etree
// (see pkg/ebicsxml) before handing it to the signer.
func Produce(root *etree.Element, key *rsa.PrivateKey) error {
	authSig := root.FindElement(".//AuthSignature")
	if authSig == nil {
		return fmt.Errorf("canon: no AuthSignature element to fill in")
	}
	signedInfo := authSig.FindElement("./ds:SignedInfo")
	if signedInfo == nil {
		return fmt.Errorf("canon: AuthSignature is missing SignedInfo")
	}
	reference := signedInfo.FindElement("./ds:Reference")
	if reference == nil {
		return fmt.Errorf("canon: SignedInfo is missing Reference")
	}

	digest, err := digestAuthenticatedSet(root)
	if err != nil {
		return err
	}
	setOrCreateText(reference, "ds:DigestValue", base64.StdEncoding.EncodeToString(digest[:]))

	signedInfoCanon, err := Canonicalize(signedInfo)
	if err != nil {
		return fmt.Errorf("canon: canonicalize SignedInfo: %w", err)
	}
	sig, err := ebicscrypto.SignPKCS1v15(key, signedInfoCanon)
	if err != nil {
		return fmt.Errorf("canon: sign SignedInfo: %w", err)
	}
	setOrCreateText(authSig, "ds:SignatureValue", base64.StdEncoding.EncodeToString(sig))
	return nil
}

// Verify recomputes the authenticated-set digest and re-canonicalizes
// SignedInfo, returning true only if both the digest and the RSA signature
// match. Any structural defect (missing elements, bad base64) is reported
// as a false verification rather than an error, mirroring the "malformed
// input yields false" rule ebicscrypto.VerifyPKCS1v15 already follows.
func Verify(root *etree.Element, pub *rsa.PublicKey) bool {
	authSig := root.FindElement(".//AuthSignature")
	if authSig == nil {
		return false
	}
	signedInfo := authSig.FindElement("./ds:SignedInfo")
	if signedInfo == nil {
		return false
	}
	reference := signedInfo.FindElement("./ds:Reference")
	if reference == nil {
		return false
	}
	digestEl := reference.FindElement("./ds:DigestValue")
	sigEl := authSig.FindElement("./ds:SignatureValue")
	if digestEl == nil || sigEl == nil {
		return false
	}

	wantDigest, err := base64.StdEncoding.DecodeString(digestEl.Text())
	if err != nil {
		return false
	}
	gotDigest, err := digestAuthenticatedSet(root)
	if err != nil {
		return false
	}
	if !equalDigest(wantDigest, gotDigest[:]) {
		return false
	}

	sig, err := base64.StdEncoding.DecodeString(sigEl.Text())
	if err != nil {
		return false
	}
	signedInfoCanon, err := Canonicalize(signedInfo)
	if err != nil {
		return false
	}
	return ebicscrypto.VerifyPKCS1v15(pub, signedInfoCanon, sig)
}

// digestAuthenticatedSet canonicalizes every element matching
// ebicsns.AuthenticateXPath, in document order, concatenates the results,
// and returns the SHA-256 of the concatenation. EBICS points its single
// Reference at this whole node-set via the literal XPointer URI
// ebicsns.AuthenticateReferenceURI instead of at one ID-tagged element.
func digestAuthenticatedSet(root *etree.Element) ([32]byte, error) {
	nodes := root.FindElements(ebicsns.AuthenticateXPath)
	if len(nodes) == 0 {
		return [32]byte{}, fmt.Errorf("canon: no elements marked authenticate=true")
	}
	h := sha256.New()
	for _, n := range nodes {
		canonBytes, err := Canonicalize(n)
		if err != nil {
			return [32]byte{}, err
		}
		h.Write(canonBytes)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

func equalDigest(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func setOrCreateText(parent *etree.Element, tag, value string) {
	el := parent.FindElement("./" + tag)
	if el == nil {
		el = parent.CreateElement(tag)
	}
	el.SetText(value)
}
