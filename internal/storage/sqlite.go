// Package storage provides SQLite-backed persistence for uploaded documents and
// index chunk texts.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/docchat/docchat/internal/models"
)

// ErrDuplicateName is returned when inserting a document whose name already
// exists. The uniqueness constraint must surface, never be silently swallowed.
var ErrDuplicateName = errors.New("document name already exists")

// Storage persists uploaded documents and chunk texts.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByName(ctx context.Context, name string) (*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)
	ReplaceChunks(ctx context.Context, chunks []*models.DocumentChunk) error
	GetChunksByIDs(ctx context.Context, ids []string) ([]*models.DocumentChunk, error)
	CountChunks(ctx context.Context) (int64, error)
	Close() error
}

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		chunk_index INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source, chunk_index);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateDocument inserts a document row. A name collision returns
// ErrDuplicateName and leaves the existing row unchanged.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *models.Document) error {
	doc.CreatedAt = time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, content, created_at) VALUES (?, ?, ?)`,
		doc.Name, doc.Content, doc.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicateName, doc.Name)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	doc.ID, _ = res.LastInsertId()
	return nil
}

// GetDocumentByName returns a document by its unique name.
func (s *SQLiteStorage) GetDocumentByName(ctx context.Context, name string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, content, created_at FROM documents WHERE name = ?`, name,
	).Scan(&doc.ID, &doc.Name, &doc.Content, &doc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", name)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CountDocuments returns the total number of uploaded documents.
func (s *SQLiteStorage) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// ReplaceChunks replaces all chunk rows in a single transaction. Index builds
// are full rebuilds, so stale chunks from previous builds are dropped.
func (s *SQLiteStorage) ReplaceChunks(ctx context.Context, chunks []*models.DocumentChunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source, content, chunk_index) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.Source, chunk.Content, chunk.ChunkIndex); err != nil {
			return fmt.Errorf("insert chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit()
}

// GetChunksByIDs returns chunks for the given IDs in the order the IDs were
// passed. Unknown IDs are skipped.
func (s *SQLiteStorage) GetChunksByIDs(ctx context.Context, ids []string) ([]*models.DocumentChunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, content, chunk_index FROM chunks WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*models.DocumentChunk, len(ids))
	for rows.Next() {
		var chunk models.DocumentChunk
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Content, &chunk.ChunkIndex); err != nil {
			return nil, err
		}
		byID[chunk.ID] = &chunk
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	chunks := make([]*models.DocumentChunk, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			chunks = append(chunks, c)
		}
	}
	return chunks, nil
}

// CountChunks returns the total number of stored chunks.
func (s *SQLiteStorage) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
