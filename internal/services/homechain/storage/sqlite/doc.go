// Package sqlite provides a SQLite-backed implementation of the homechain
// registries and event journal.
//
// Every registry method runs against a queryer, so the same code serves the
// store handle and the transaction opened by Transact.
package sqlite
