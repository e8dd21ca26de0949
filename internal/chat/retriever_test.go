package chat

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/docchat/docchat/internal/embedding"
	"github.com/docchat/docchat/internal/models"
	"github.com/docchat/docchat/internal/storage"
	"github.com/docchat/docchat/internal/vector"
)

func TestRetriever_roundTrip(t *testing.T) {
	ctx := context.Background()
	embedder := embedding.NewMockEmbedder(16)
	index, err := vector.NewMemoryIndex(embedder.Model(), embedder.Dimensions())
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	chunks := []*models.DocumentChunk{
		{ID: "c1", Source: "a.txt", Content: "cats are small felines", ChunkIndex: 0},
		{ID: "c2", Source: "a.txt", Content: "go is a programming language", ChunkIndex: 1},
	}
	if err := store.ReplaceChunks(ctx, chunks); err != nil {
		t.Fatal(err)
	}
	for _, c := range chunks {
		vec, err := embedder.Embed(ctx, c.Content)
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Add(ctx, []string{c.ID}, [][]float32{vec}); err != nil {
			t.Fatal(err)
		}
	}

	r := NewRetriever(embedder, index, store, 1)
	// The mock embedder maps identical text to identical vectors, so querying
	// with a chunk's own text must rank that chunk first.
	texts, err := r.Retrieve(ctx, "cats are small felines")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(texts) != 1 || texts[0] != "cats are small felines" {
		t.Errorf("got %v", texts)
	}
}

func TestRetriever_emptyIndex(t *testing.T) {
	embedder := embedding.NewMockEmbedder(8)
	index, _ := vector.NewMemoryIndex(embedder.Model(), 8)
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := NewRetriever(embedder, index, store, 4)
	texts, err := r.Retrieve(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if texts != nil {
		t.Errorf("expected no results, got %v", texts)
	}
}

func TestRetriever_setIndexSwaps(t *testing.T) {
	embedder := embedding.NewMockEmbedder(8)
	old, _ := vector.NewMemoryIndex(embedder.Model(), 8)
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := NewRetriever(embedder, old, store, 4)
	if r.IndexSize() != 0 {
		t.Fatalf("size: %d", r.IndexSize())
	}

	fresh, _ := vector.NewMemoryIndex(embedder.Model(), 8)
	vec, _ := embedder.Embed(context.Background(), "text")
	_ = fresh.Add(context.Background(), []string{"c1"}, [][]float32{vec})
	r.SetIndex(fresh)
	if r.IndexSize() != 1 {
		t.Errorf("size after swap: %d", r.IndexSize())
	}
}
