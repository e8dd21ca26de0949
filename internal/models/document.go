// Package models defines the core data structures for documents, chunks, and chat.
package models

import "time"

// Document is an uploaded document stored as a single row.
// Name is unique across all documents; the storage layer enforces this.
type Document struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DocumentChunk is a bounded-size text segment produced by splitting a source blob.
// Immutable once created. Embedding is populated during index builds and never persisted
// in the relational store; the vector index owns it.
type DocumentChunk struct {
	ID         string    `json:"id" db:"id"`
	Source     string    `json:"source" db:"source"`
	Content    string    `json:"content" db:"content"`
	ChunkIndex int       `json:"chunk_index" db:"chunk_index"`
	Embedding  []float32 `json:"-" db:"-"`
}
