// Package core provides the foundational domain types and interfaces used by
// genmesh. It defines the core abstractions for:
//
//   - Generation requests, records and pipeline outcomes
//   - Tagged capability results with named payload accessors
//   - Sessions (per-caller containers of session-scoped generation records)
//   - Pluggable stores for artifacts, session memory and long-term memory
//   - The error taxonomy shared by every pipeline stage
//
// The package intentionally keeps implementation concerns (file layout,
// transports, orchestration) out of scope, exposing small interfaces so
// alternative backends can be wired without touching calling code.
package core
