// Package engine drives the EBICS transaction state machine: it owns a
// TransactionContext for the life of one logical transaction, dispatches
// to a Command for the phase-specific XML, signs and sends requests over
// pkg/transport, verifies and parses responses, and segments up/downloads.
//
// The engine defines the Command interface it drives rather than
// depending on pkg/command directly, so per-order-type implementations
// can depend on engine's types without an import cycle — an "accept
// interfaces, return structs" shape that keeps handler registration
// one-directional.
package engine
