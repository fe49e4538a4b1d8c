// Package canon implements the constrained XML-DSIG profile EBICS uses to
// produce and verify the AuthSignature element: XML Canonicalization 1.0
// (inclusive, not exclusive) as the sole transform, SHA-256 digests, RSA
// PKCS#1 v1.5 / SHA-256 signatures, and a single Reference whose URI is the
// literal XPointer expression "#xpointer(//*[@authenticate='true'])"
// rather than an ID-based fragment.
//
// A WS-Security-style signer can delegate canonicalization and reference
// resolution to github.com/leifj/signedxml, which resolves references by
// wsu:Id attribute. EBICS instead signs the union of every element flagged
// authenticate="true", so canon builds its own reference-set
// canonicalizer directly on top of beevik/etree rather than adapting
// signedxml's ID-based reference model.
package canon
