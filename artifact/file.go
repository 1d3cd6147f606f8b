package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/genmesh/core"
)

// DefaultDir is the content directory used when none is configured.
var DefaultDir = filepath.Join("datastore", "generatedImages")

// FileStore is a core.ArtifactStore writing artifacts into a directory on
// local disk. The directory is created on first use. Files are created
// exclusively and never overwritten.
type FileStore struct {
	dir     string
	perm    os.FileMode
	stamper stamper
}

// FileOptions configures a FileStore.
type FileOptions struct {
	// FileMode applied to new artifact files.
	FileMode os.FileMode
}

// NewFileStore returns a store rooted at dir. No filesystem access happens
// until the first Reserve or Save.
func NewFileStore(dir string, optFns ...func(o *FileOptions)) *FileStore {
	opts := FileOptions{FileMode: 0o644}
	for _, fn := range optFns {
		fn(&opts)
	}
	if dir == "" {
		dir = DefaultDir
	}
	return &FileStore{dir: dir, perm: opts.FileMode}
}

// Dir returns the content directory.
func (s *FileStore) Dir() string { return s.dir }

// Reserve implements core.ArtifactStore.
func (s *FileStore) Reserve(t time.Time) (string, error) {
	return s.stamper.reserve(t, func(name string) (bool, error) {
		_, err := os.Stat(filepath.Join(s.dir, name))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &core.PersistenceError{Op: "stat artifact", Path: name, Err: err}
	})
}

// Release implements core.ArtifactStore.
func (s *FileStore) Release(stamp string) { s.stamper.release(stamp) }

// Path implements core.ArtifactStore.
func (s *FileStore) Path(kind core.ArtifactKind, stamp string) string {
	return filepath.Join(s.dir, kind.FileName(stamp))
}

// Save implements core.ArtifactStore. An existing file yields ErrExists.
func (s *FileStore) Save(ctx context.Context, kind core.ArtifactKind, stamp string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := s.Path(kind, stamp)
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", &core.PersistenceError{Op: "create artifact dir", Path: s.dir, Err: err}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", &core.PersistenceError{Op: "write artifact", Path: path, Err: ErrExists}
		}
		return "", &core.PersistenceError{Op: "write artifact", Path: path, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", &core.PersistenceError{Op: "write artifact", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &core.PersistenceError{Op: "write artifact", Path: path, Err: err}
	}
	return path, nil
}

// Get implements core.ArtifactStore.
func (s *FileStore) Get(_ context.Context, kind core.ArtifactKind, stamp string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(kind, stamp))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// Delete implements core.ArtifactStore.
func (s *FileStore) Delete(_ context.Context, kind core.ArtifactKind, stamp string) error {
	path := s.Path(kind, stamp)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &core.PersistenceError{Op: "delete artifact", Path: path, Err: err}
	}
	return nil
}

// List returns the artifact file names in the content directory, sorted.
// A missing directory yields an empty list.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "output_") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
