package core

import (
	"sync"
	"time"
)

// Session is the per-caller state container holding session-scoped
// generation records. It is safe for concurrent access.
//
// Contract:
//   - AddRecord updates the Updated timestamp
//   - GetRecords returns a defensive copy to avoid external mutation
//   - Clone performs deep copies of slices for safe divergence.
type Session struct {
	ID      string             `json:"id"`
	Records []GenerationRecord `json:"records"`
	Created time.Time          `json:"created"`
	Updated time.Time          `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates a new session with the given ID and no records.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Records: []GenerationRecord{}, Created: now, Updated: now}
}

// AddRecord appends a record to the session history.
func (s *Session) AddRecord(r GenerationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Records = append(s.Records, r)
	s.Updated = time.Now()
}

// GetRecords returns a defensive copy of the session records.
func (s *Session) GetRecords() []GenerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]GenerationRecord, len(s.Records))
	copy(records, s.Records)
	return records
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, Records: make([]GenerationRecord, len(s.Records)), Created: s.Created, Updated: s.Updated}
	copy(clone.Records, s.Records)
	return clone
}

// SessionStore holds sessions and their session-scoped records. Records are
// lost on process restart unless an implementation persists them.
type SessionStore interface {
	Get(id string) (*Session, error)
	Append(sessionID string, record GenerationRecord) error
}
