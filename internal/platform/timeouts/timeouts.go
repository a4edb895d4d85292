// Package timeouts defines shared timeout constants used across homechain binaries.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the transaction service.
const GRPCDial = 2 * time.Second

// GRPCRequest caps the time allowed for a single client call to the
// transaction service.
const GRPCRequest = 5 * time.Second

// StoreBusy is the SQLite busy timeout applied to every connection.
const StoreBusy = 5 * time.Second

// ReadHeader limits how long the metrics HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful shutdown.
const Shutdown = 5 * time.Second

// Publish caps a single event bus publish, including broker confirmation.
const Publish = 5 * time.Second
