// Package codec implements the EBICS order-data pipeline: on upload,
// deflate the payload, AES-128-CBC encrypt it under a fresh session key,
// RSA-wrap that key for the bank, and Base64-segment the ciphertext; on
// download, the inverse. It composes pkg/ebicscrypto's primitives into a
// hybrid RSA/AES envelope, fixed to EBICS's deflate->AES->RSA-wrap chain
// and its segmentation requirement.
package codec

// MaxSegmentBytes bounds the ciphertext bytes carried in each segment EBICS
// transmits per phase; the Base64 text of a full segment is 4/3 of this.
const MaxSegmentBytes = 1 << 20
