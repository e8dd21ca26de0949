// Package indexer rebuilds the searchable corpus: load documents, split into
// chunks, embed, persist chunks, and populate a fresh vector index.
package indexer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/docchat/docchat/internal/chunker"
	"github.com/docchat/docchat/internal/embedding"
	"github.com/docchat/docchat/internal/loader"
	"github.com/docchat/docchat/internal/models"
	"github.com/docchat/docchat/internal/storage"
	"github.com/docchat/docchat/internal/vector"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Builder produces a complete index from a documents folder. Every build is a
// full rebuild: stored chunks are replaced wholesale and a fresh vector index
// is returned, so a failed build never leaves a half-updated corpus behind.
type Builder struct {
	loader   *loader.Loader
	splitter chunker.Splitter
	embedder embedding.Embedder
	store    storage.Storage
	logger   *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets a logger for build progress events.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a builder with the given dependencies.
func NewBuilder(ld *loader.Loader, splitter chunker.Splitter, embedder embedding.Embedder, store storage.Storage, opts ...Option) *Builder {
	b := &Builder{
		loader:   ld,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build loads the folder, chunks and embeds every document, replaces the
// stored chunk set, and returns a populated vector index. An empty folder
// yields an empty index, which is still valid for serving.
func (b *Builder) Build(ctx context.Context, folder string) (*vector.MemoryIndex, error) {
	blobs, err := b.loader.LoadDir(ctx, folder)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	index, err := vector.NewMemoryIndex(b.embedder.Model(), b.embedder.Dimensions())
	if err != nil {
		return nil, err
	}

	var all []*models.DocumentChunk
	for _, blob := range blobs {
		chunks, err := b.buildBlob(ctx, index, blob)
		if err != nil {
			return nil, err
		}
		all = append(all, chunks...)
	}

	if err := b.store.ReplaceChunks(ctx, all); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	b.logger.Info("index built",
		zap.Int("documents", len(blobs)),
		zap.Int("chunks", len(all)),
	)
	return index, nil
}

// buildBlob splits one blob, embeds its chunks in a single batch, and adds the
// vectors to the index.
func (b *Builder) buildBlob(ctx context.Context, index *vector.MemoryIndex, blob loader.Blob) ([]*models.DocumentChunk, error) {
	texts := b.splitter.Split(blob.Text)
	if len(texts) == 0 {
		return nil, nil
	}

	source := filepath.Base(blob.Source)
	chunks := make([]*models.DocumentChunk, len(texts))
	ids := make([]string, len(texts))
	for i, text := range texts {
		id := fmt.Sprintf("%s_%d_%s", source, i, uuid.New().String()[:8])
		chunks[i] = &models.DocumentChunk{
			ID:         id,
			Source:     blob.Source,
			Content:    text,
			ChunkIndex: i,
		}
		ids[i] = id
	}

	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", blob.Source, err)
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	if err := index.Add(ctx, ids, embeddings); err != nil {
		return nil, fmt.Errorf("index %s: %w", blob.Source, err)
	}
	b.logger.Debug("document indexed",
		zap.String("source", blob.Source),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}
