// Package ebicscrypto implements the cryptographic primitives EBICS
// mandates for the transaction envelope: RSA sign/verify/encrypt with
// PKCS#1 v1.5 padding (A005; A006/RSASSA-PSS is out of scope), AES-128-CBC
// with a zero IV for transaction-key protected payloads, SHA-256 digests,
// ZLIB compression, and the nonce/transaction-key/timestamp/public-key
// digest helpers the rest of the client depends on.
//
// Every operation here is synchronous and CPU-bound; none of it blocks on
// I/O.
package ebicscrypto
