package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atikulmunna/logformat/internal/model"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id TEXT PRIMARY KEY,
	timestamp DATETIME,
	source TEXT,
	raw TEXT,
	message TEXT,
	rejected INTEGER DEFAULT 0
);
CREATE TABLE IF NOT EXISTS entities (
	entry_id TEXT NOT NULL REFERENCES entries(id),
	position INTEGER NOT NULL,
	body TEXT,
	PRIMARY KEY (entry_id, position)
);`

// Store persists formatted entries and their rendered entities in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// A single connection serializes writers and avoids "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Render stores entry, so a Store can be used wherever an output renderer is.
func (s *Store) Render(entry model.LogEntry) error {
	_, err := s.Insert(context.Background(), entry)
	return err
}

// Insert stores one entry with its entities in a single transaction and
// returns the generated entry ID.
func (s *Store) Insert(ctx context.Context, entry model.LogEntry) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, timestamp, source, raw, message, rejected) VALUES (?, ?, ?, ?, ?, ?)`,
		id, entry.Timestamp.UTC(), entry.Source, entry.Raw, entry.Message, entry.Rejected)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}

	for i, body := range entry.Entities {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO entities (entry_id, position, body) VALUES (?, ?, ?)`,
			id, i+1, body)
		if err != nil {
			return "", fmt.Errorf("insert entity %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// Count returns the number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	return n, err
}

// Entities returns the rendered entities of one entry in placeholder order.
func (s *Store) Entities(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM entities WHERE entry_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
