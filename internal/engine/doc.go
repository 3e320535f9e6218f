// Package engine adapts hosted reasoning providers behind one streaming
// interface. A generation is a lazy, finite event sequence: text deltas,
// then either tool calls or a final. Tool calls pause the generation and
// hand back a continuation; Resume feeds the tool outcomes in and picks
// the sequence back up. Providers: anthropic, openai, and a scriptable
// mock for tests and offline development.
package engine
