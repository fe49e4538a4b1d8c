// Package ebics is the client façade: it configures an engine.Engine and
// exposes one method per order type. Construction uses functional options
// rather than a large constructor argument list or a mutable builder with
// setters.
package ebics
