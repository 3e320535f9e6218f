// Package orchestrator runs the conversation state machine for one duplex
// channel. Every user turn produces exactly one terminal frame: Done after
// the exchange is persisted, or an Error carrying a stable code. In
// between, engine deltas relay as Chunk frames the moment they arrive, and
// tool calls round-trip through the client via the dispatch correlator.
// Turns arriving while one is in flight queue in order; tool results bypass
// the queue so the in-flight turn can make progress.
package orchestrator
