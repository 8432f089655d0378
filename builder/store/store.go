// Package store provides the SQLite-backed fact store: a durable, queryable
// table of derived document metadata. Handlers write documents into it
// during classification; the render layer reads them back by relationship.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned by Get when no document exists for a URL.
var ErrNotFound = errors.New("store: document not found")

const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS metadata (
	identifier INTEGER PRIMARY KEY,
	version    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
	url      TEXT PRIMARY KEY,
	parent   TEXT NOT NULL DEFAULT '',
	type     TEXT NOT NULL DEFAULT 'general',
	date     DATETIME,
	metadata TEXT NOT NULL DEFAULT '{}',
	content  TEXT NOT NULL DEFAULT '',
	mtime    INTEGER NOT NULL DEFAULT 0,
	sum      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent);
CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(type);
`

const versionKey = 1

// Store wraps the documents database. A single build owns the store for the
// duration of a run; reads may be served from an in-memory snapshot that is
// invalidated on every write.
type Store struct {
	conn *sql.DB
	snap *snapshot
}

// Open opens (or creates) the document store and applies the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	if _, err := conn.Exec(
		`INSERT OR REPLACE INTO metadata (identifier, version) VALUES (?, ?)`,
		versionKey, schemaVersion); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: record schema version: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Version returns the recorded schema version.
func (s *Store) Version() (int, error) {
	var v int
	err := s.conn.QueryRow(
		`SELECT version FROM metadata WHERE identifier = ? LIMIT 1`, versionKey).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("store: read version: %w", err)
	}
	return v, nil
}

// Put upserts documents by URL, replacing all fields.
func (s *Store) Put(docs ...*Document) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, doc := range docs {
		meta := doc.Meta
		if meta == nil {
			meta = map[string]any{}
		}
		metaJSON, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("store: encode metadata for %s: %w", doc.URL, err)
		}

		var date any
		if doc.Date != nil {
			date = doc.Date.UTC().Format(time.RFC3339)
		}

		docType := doc.Type
		if docType == "" {
			docType = DefaultType
		}

		_, err = tx.Exec(`
			INSERT OR REPLACE INTO documents (url, parent, type, date, metadata, content, mtime, sum)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, doc.URL, doc.Parent, docType, date, string(metaJSON), doc.Content, doc.Mtime.Unix(), doc.Sum)
		if err != nil {
			return fmt.Errorf("store: upsert %s: %w", doc.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	s.invalidate()
	return nil
}

// Delete removes the document for a URL. Deleting an absent URL is a no-op.
func (s *Store) Delete(url string) error {
	if _, err := s.conn.Exec(`DELETE FROM documents WHERE url = ?`, url); err != nil {
		return fmt.Errorf("store: delete %s: %w", url, err)
	}
	s.invalidate()
	return nil
}

// DeleteAll empties the documents table.
func (s *Store) DeleteAll() error {
	if _, err := s.conn.Exec(`DELETE FROM documents`); err != nil {
		return fmt.Errorf("store: delete all: %w", err)
	}
	s.invalidate()
	return nil
}

// Get returns the document for a URL, or ErrNotFound.
func (s *Store) Get(url string) (*Document, error) {
	snap, err := s.loadSnapshot()
	if err != nil {
		return nil, err
	}
	doc, ok := snap.byURL[url]
	if !ok {
		return nil, ErrNotFound
	}
	return doc, nil
}

func scanDocument(rows *sql.Rows) (*Document, error) {
	var (
		doc      Document
		date     sql.NullString
		metaJSON string
		mtime    int64
	)
	if err := rows.Scan(&doc.URL, &doc.Parent, &doc.Type, &date, &metaJSON, &doc.Content, &mtime, &doc.Sum); err != nil {
		return nil, fmt.Errorf("store: scan: %w", err)
	}
	if date.Valid {
		t, err := time.Parse(time.RFC3339, date.String)
		if err != nil {
			return nil, fmt.Errorf("store: parse date for %s: %w", doc.URL, err)
		}
		doc.Date = &t
	}
	if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
		return nil, fmt.Errorf("store: decode metadata for %s: %w", doc.URL, err)
	}
	doc.Mtime = time.Unix(mtime, 0).UTC()
	return &doc, nil
}
