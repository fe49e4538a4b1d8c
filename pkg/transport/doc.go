// Package transport implements the HTTPS client the engine uses to post
// EBICS request documents and read back response documents. It is
// client-only: EBICS is a customer-initiated protocol, so there is no
// inbound listener to serve (see DESIGN.md).
package transport
