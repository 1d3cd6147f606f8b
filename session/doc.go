// Package session houses concrete implementations of core.SessionStore, the
// session-scoped tier of generation memory. The interface itself (and the
// Session struct) live in the core package to centralize domain contracts.
//
// Session memory is deliberately volatile: it is scoped to the running
// application and lost on restart. Durable history belongs to the long-term
// ledger in the memory package.
package session
