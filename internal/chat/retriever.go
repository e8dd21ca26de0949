package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/docchat/docchat/internal/embedding"
	"github.com/docchat/docchat/internal/storage"
	"github.com/docchat/docchat/internal/vector"
)

// Retriever finds the chunks most similar to a query string: embed the query,
// search the vector index, then resolve hit ids to chunk texts.
type Retriever struct {
	embedder embedding.Embedder
	store    storage.Storage
	topK     int

	mu    sync.RWMutex
	index *vector.MemoryIndex
}

// NewRetriever creates a retriever over the given index.
func NewRetriever(embedder embedding.Embedder, index *vector.MemoryIndex, store storage.Storage, topK int) *Retriever {
	if topK <= 0 {
		topK = 4
	}
	return &Retriever{embedder: embedder, index: index, store: store, topK: topK}
}

// SetIndex swaps in a freshly built index. Used by watch-mode rebuilds; in-flight
// searches finish against the index they started with.
func (r *Retriever) SetIndex(index *vector.MemoryIndex) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = index
}

// IndexSize returns the number of vectors in the current index.
func (r *Retriever) IndexSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Size()
}

// Retrieve returns the texts of the top-K chunks most similar to query.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	r.mu.RLock()
	index := r.index
	r.mu.RUnlock()

	results, err := index.Search(ctx, vec, r.topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	chunks, err := r.store.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	return texts, nil
}
