// Package metrics provides operational metrics collection.
//
// # Metric Categories
//
//   - Transactions: processed count by type and outcome, and processing latency
//   - gRPC: request count by method and status code, and request latency
//   - Runtime: Go and process collectors
//
// # Integration
//
// Metrics collects into its own registry. The gRPC interceptor records every
// unary call; the transaction processor reports through ObserveTransaction.
// Handler serves the registry in Prometheus exposition format.
package metrics
