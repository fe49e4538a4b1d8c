// Package revocation checks whether a bank's X.509 certificate has been
// revoked, via OCSP. It checks OCSP only, once per call, with no CRL
// fallback or response cache — the client checks a bank certificate after
// each HPB, not on every transaction, so that
// caching complexity does not carry its weight here (see DESIGN.md).
package revocation
