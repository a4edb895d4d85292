// Package storage defines the registries the transaction processor reads and
// writes, the event journal, and the unit of work that makes one transaction
// atomic.
//
// Implementations live in subpackages: memory for tests and tooling, sqlite
// for the service.
//
// Common error types:
//   - ErrNotFound: requested record is missing
package storage
