// Package server assembles the runtime and owns its lifecycle. It binds the
// Runtime gRPC service to the orchestrator, serves liveness endpoints and
// metrics over HTTP, and optionally joins a tailnet so clients can reach the
// duplex service without exposing a public port. Run blocks until the context
// is canceled or a listener fails, then drains within a bounded window.
package server
