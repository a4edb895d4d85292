// Package server wires the homechain registry service: the SQLite store,
// the event bus and its outbox relay, the transaction processor, and the
// gRPC and metrics listeners.
package server
