package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// InMemoryStore is a trivial in‑process ArtifactStore implementation useful
// for tests, examples and single‑process prototypes. It keeps all artifacts in
// a map keyed by file name guarded by an RWMutex. Data is copied on save /
// retrieval to avoid accidental external mutation of internal buffers.
//
// This implementation does not enforce size quotas or eviction and loses
// everything on restart. Use FileStore when artifacts must survive.
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string][]byte // file name -> data
	stamper   stamper
}

// NewInMemoryStore returns an empty in‑memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string][]byte)}
}

// Reserve implements core.ArtifactStore.
func (a *InMemoryStore) Reserve(t time.Time) (string, error) {
	return a.stamper.reserve(t, func(name string) (bool, error) {
		a.mu.RLock()
		defer a.mu.RUnlock()
		_, ok := a.artifacts[name]
		return ok, nil
	})
}

// Release implements core.ArtifactStore.
func (a *InMemoryStore) Release(stamp string) { a.stamper.release(stamp) }

// Path implements core.ArtifactStore. In-memory paths are bare file names.
func (a *InMemoryStore) Path(kind core.ArtifactKind, stamp string) string {
	return kind.FileName(stamp)
}

// Save stores the artifact bytes. The input slice is copied before storage.
// Saving over an existing artifact yields ErrExists.
func (a *InMemoryStore) Save(ctx context.Context, kind core.ArtifactKind, stamp string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := a.Path(kind, stamp)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.artifacts[name]; exists {
		return "", &core.PersistenceError{Op: "write artifact", Path: name, Err: ErrExists}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.artifacts[name] = cp
	return name, nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(_ context.Context, kind core.ArtifactKind, stamp string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.artifacts[a.Path(kind, stamp)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Delete removes an artifact. Missing artifacts are ignored.
func (a *InMemoryStore) Delete(_ context.Context, kind core.ArtifactKind, stamp string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.artifacts, a.Path(kind, stamp))
	return nil
}

// List returns the stored artifact names, sorted. The slice is a snapshot and
// safe for caller mutation.
func (a *InMemoryStore) List(_ context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.artifacts))
	for name := range a.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
