package rag

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"localcoder/internal/docs"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT    NOT NULL,
	source     TEXT    NOT NULL,
	page       INTEGER NOT NULL DEFAULT 0,
	content    TEXT    NOT NULL,
	embedding  BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection, source);
`

// SQLiteStore persists chunks and their embeddings in SQLite. Stores opened
// with WithCollection share the database and see only their own chunks.
type SQLiteStore struct {
	db         *sql.DB
	collection string
	owner      bool
	persistent bool
}

// OpenSQLiteStore opens or creates the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, collection: "default", owner: true}, nil
}

// WithCollection returns a view of the same database scoped to name.
// Closing the view deletes its chunks but leaves the database open.
func (s *SQLiteStore) WithCollection(name string) *SQLiteStore {
	return &SQLiteStore{db: s.db, collection: name}
}

// PersistentCollection is like WithCollection, but closing the view keeps
// its chunks for the next run.
func (s *SQLiteStore) PersistentCollection(name string) *SQLiteStore {
	return &SQLiteStore{db: s.db, collection: name, persistent: true}
}

func (s *SQLiteStore) Add(ctx context.Context, chunks []docs.Document, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errLengthMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (collection, source, page, content, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, s.collection, c.Source, c.Page, c.Content, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, page, content, embedding FROM chunks WHERE collection = ? ORDER BY id`, s.collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			doc  docs.Document
			blob []byte
		)
		if err := rows.Scan(&doc.Source, &doc.Page, &doc.Content, &blob); err != nil {
			return nil, err
		}
		hits = append(hits, Hit{Doc: doc, Score: CosineSimilarity(query, decodeVector(blob))})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(hits, k), nil
}

func (s *SQLiteStore) DeleteSource(ctx context.Context, source string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ? AND source = ?`, s.collection, source)
	return err
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`, s.collection).Scan(&n)
	return n, err
}

// Close closes the database when s opened it. A collection view drops its
// chunks instead, unless it is persistent.
func (s *SQLiteStore) Close() error {
	if s.owner {
		return s.db.Close()
	}
	if s.persistent {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM chunks WHERE collection = ?`, s.collection)
	return err
}

// encodeVector stores v as little-endian float32 values.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
