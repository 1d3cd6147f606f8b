package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/logging"
)

// DefaultPath is the ledger location used when none is configured.
var DefaultPath = filepath.Join("datastore", "long_term_memory.json")

// JSONFileStore is a LongTermStore backed by a human readable JSON array
// file. Each append loads the full ledger, appends, and rewrites the file via
// a synced temp file renamed over the original, all under one mutex. A crash
// mid-write leaves the previous ledger intact.
type JSONFileStore struct {
	path   string
	perm   os.FileMode
	logger logging.Logger
	mu     sync.Mutex
}

// JSONFileOptions configures a JSONFileStore.
type JSONFileOptions struct {
	FileMode os.FileMode
	Logger   logging.Logger
}

// NewJSONFileStore returns a ledger stored at path. The file and its parent
// directory are created on first append.
func NewJSONFileStore(path string, optFns ...func(o *JSONFileOptions)) *JSONFileStore {
	opts := JSONFileOptions{FileMode: 0o644, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if path == "" {
		path = DefaultPath
	}
	return &JSONFileStore{path: path, perm: opts.FileMode, logger: opts.Logger}
}

// Path returns the ledger file location.
func (s *JSONFileStore) Path() string { return s.path }

// Load reads the ledger. A missing file yields an empty slice.
func (s *JSONFileStore) Load(_ context.Context) ([]core.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Append adds record to the end of the ledger.
func (s *JSONFileStore) Append(ctx context.Context, record core.GenerationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	records = append(records, record)
	if err := s.saveLocked(records); err != nil {
		return err
	}
	s.logger.Debug("Long-term memory appended", "path", s.path, "records", len(records))
	return nil
}

func (s *JSONFileStore) loadLocked() ([]core.GenerationRecord, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.GenerationRecord{}, nil
	}
	if err != nil {
		return nil, &core.PersistenceError{Op: "read ledger", Path: s.path, Err: err}
	}
	records := []core.GenerationRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &core.PersistenceError{Op: "decode ledger", Path: s.path, Err: err}
	}
	return records, nil
}

func (s *JSONFileStore) saveLocked(records []core.GenerationRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &core.PersistenceError{Op: "encode ledger", Path: s.path, Err: err}
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &core.PersistenceError{Op: "create ledger dir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &core.PersistenceError{Op: "write ledger", Path: s.path, Err: err}
	}
	tmpPath := tmp.Name()
	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &core.PersistenceError{Op: "write ledger", Path: s.path, Err: cause}
	}
	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(s.perm); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &core.PersistenceError{Op: "write ledger", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return &core.PersistenceError{Op: "write ledger", Path: s.path, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}
