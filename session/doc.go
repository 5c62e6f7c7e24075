// Package session stores per-conversation message history for agents.
//
// Store is the contract agents depend on; InMemoryStore is the bundled
// implementation. Additional backends (Redis, Postgres, ...) can live in
// sub-packages without changing any calling code, only the wiring layer
// decides which implementation to instantiate.
package session
