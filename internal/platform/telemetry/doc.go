// Package telemetry groups operational observability for homechain.
//
// The event journal records business facts and lives with the registries.
// Telemetry covers what operators watch instead: request rates, latencies,
// and transaction outcomes, exported in Prometheus format by the metrics
// subpackage. Traces are configured by platform/otel.
package telemetry
