package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hupe1980/genmesh/core"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS generations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	prompt          TEXT NOT NULL,
	expanded_prompt TEXT NOT NULL,
	image_file      TEXT NOT NULL,
	model_file      TEXT NOT NULL,
	created_at      TEXT NOT NULL
)`

// SQLiteStore is a LongTermStore keeping one row per record in a SQLite
// database. Row ids preserve append order.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates the schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	onDisk := path != ":memory:" && !strings.HasPrefix(path, "file::memory:")
	if onDisk {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Appends are serialized by the store; a single connection also keeps
	// in-memory databases from splitting across connections.
	db.SetMaxOpenConns(1)

	if onDisk {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load returns every record in append order.
func (s *SQLiteStore) Load(ctx context.Context) ([]core.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT prompt, expanded_prompt, image_file, model_file, created_at FROM generations ORDER BY id`)
	if err != nil {
		return nil, &core.PersistenceError{Op: "query ledger", Err: err}
	}
	defer rows.Close()

	records := []core.GenerationRecord{}
	for rows.Next() {
		var r core.GenerationRecord
		if err := rows.Scan(&r.Prompt, &r.ExpandedPrompt, &r.ImageFile, &r.ModelFile, &r.CreatedAt); err != nil {
			return nil, &core.PersistenceError{Op: "scan ledger", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.PersistenceError{Op: "query ledger", Err: err}
	}
	return records, nil
}

// Append inserts record inside a transaction.
func (s *SQLiteStore) Append(ctx context.Context, record core.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.PersistenceError{Op: "append ledger", Err: err}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO generations (prompt, expanded_prompt, image_file, model_file, created_at) VALUES (?, ?, ?, ?, ?)`,
		record.Prompt, record.ExpandedPrompt, record.ImageFile, record.ModelFile, record.CreatedAt,
	); err != nil {
		_ = tx.Rollback()
		return &core.PersistenceError{Op: "append ledger", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &core.PersistenceError{Op: "append ledger", Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
