// Package storage persists the polling offset in SQLite so a restarted bot
// resumes where it stopped instead of replaying the server's queue.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS offsets (
	bot_id         TEXT PRIMARY KEY,
	next_update_id INTEGER NOT NULL,
	updated_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// pragmas are applied on open. modernc.org/sqlite ignores DSN pragma params
// such as _journal_mode, so they are issued as statements.
var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// SQLiteStore owns the database handle. Offsets hands out per-bot views.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	path   string // file path without DSN params; empty for in-memory databases
}

// NewSQLiteStore opens path, which may be a file, a file DSN with params, or
// ":memory:".
func NewSQLiteStore(logger *slog.Logger, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// One bot, one writer; modernc.org/sqlite misbehaves with concurrent writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "storage"),
		path:   filePath(path),
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			s.logger.Warn("failed to apply pragma", "pragma", pragma, "error", err)
		}
	}
	s.logger.Info("Offset store opened", "path", s.path)
	return s, nil
}

func filePath(dsn string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == ":memory:" {
		return ""
	}
	return path
}

// Init creates the schema. It is safe to call on an existing database.
func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create offsets table: %w", err)
	}
	return nil
}

// GetDBSize returns the size of the database file in bytes, 0 in memory.
func (s *SQLiteStore) GetDBSize() (int64, error) {
	if s.path == "" {
		return 0, nil
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Checkpoint flushes the WAL into the main database file.
func (s *SQLiteStore) Checkpoint() error {
	var busy, frames, done int
	if err := s.db.QueryRow("PRAGMA wal_checkpoint(TRUNCATE)").Scan(&busy, &frames, &done); err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	if busy != 0 {
		return fmt.Errorf("checkpoint blocked by reader (busy=%d)", busy)
	}
	s.logger.Debug("WAL checkpointed", "log_frames", frames, "checkpointed_frames", done)
	return nil
}

// Close checkpoints, publishes the final file size and closes the handle.
func (s *SQLiteStore) Close() error {
	if err := s.Checkpoint(); err != nil {
		s.logger.Warn("failed to checkpoint WAL before close", "error", err)
	}
	if size, err := s.GetDBSize(); err == nil {
		SetStorageSize(size)
	}
	return s.db.Close()
}
