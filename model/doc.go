// Package model defines the provider‑agnostic contract between an agent host
// and the chat-completion adapters that back it.
//
// Core goals:
//   - Unify blocking and streaming generation behind one capability set (Model)
//   - Keep request/response shapes minimal and transport independent
//   - Make the accepted generation options auditable (Options + the
//     unsupported-parameter table) instead of passing loose maps through
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (e.g. OpenRouter, Anthropic) implement Model so higher layers
// (agents, CLI) remain decoupled from vendor SDKs.
package model
