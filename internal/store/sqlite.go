// ABOUTME: SQLite-backed audit log of sent messages using modernc.org/sqlite.
// ABOUTME: Schema is created automatically; WAL mode for concurrent readers.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Message is one relayed message as recorded in the audit log.
type Message struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	ChatJID     string    `json:"chat_jid"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// SQLiteStore records relayed messages in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a store at the given path. The schema is created
// automatically and parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// createSchema creates the messages table if it doesn't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		destination TEXT NOT NULL,
		chat_jid TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordSend records one relayed message. The id is generated here so
// callers need not care about identity.
func (s *SQLiteStore) RecordSend(ctx context.Context, destination, chatJID, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, destination, chat_jid, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), destination, chatJID, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("recording send: %w", err)
	}
	return nil
}

// RecentSends returns up to limit messages, newest first.
func (s *SQLiteStore) RecentSends(ctx context.Context, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, destination, chat_jid, content, created_at FROM messages ORDER BY created_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying sends: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Destination, &m.ChatJID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
