// Package model defines the provider‑agnostic abstractions and concrete
// helpers for interacting with text generation models inside genmesh.
//
// Core goals:
//   - Unify generation behind a single channel based interface
//   - Keep request/response shapes minimal and transport independent
//   - Surface failures as core.TransportError / core.MalformedResponseError
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (Ollama, OpenAI compatible servers, Anthropic) implement the
// Model interface from this package so the prompt expander remains decoupled
// from vendor SDKs.
package model
