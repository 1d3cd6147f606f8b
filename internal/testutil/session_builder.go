package testutil

import (
	"github.com/hupe1980/genmesh/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").Records(r1, r2).Build()
type SessionBuilder struct {
	id      string
	records []core.GenerationRecord
}

// NewSessionBuilder creates a new builder for a session with the given id.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{id: id}
}

// Record appends a single record to the session (chainable).
func (b *SessionBuilder) Record(r core.GenerationRecord) *SessionBuilder {
	b.records = append(b.records, r)
	return b
}

// Records appends multiple records to the session (chainable).
func (b *SessionBuilder) Records(rs ...core.GenerationRecord) *SessionBuilder {
	b.records = append(b.records, rs...)
	return b
}

// Build returns a *core.Session with pre-populated records.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id)
	s.Records = append(s.Records, b.records...)
	return s
}
