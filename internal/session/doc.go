// Package session provides conversation history persistence with
// in-memory, Redis, and SQLite backends behind a common Store interface.
package session
