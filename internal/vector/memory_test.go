package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryIndex_addAndSearch(t *testing.T) {
	idx, err := NewMemoryIndex("mock", 3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	err = idx.Add(ctx,
		[]string{"a", "b", "c"},
		[][]float32{{1, 0, 0}, {0, 1, 0}, {0.9, 0.1, 0}},
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "c" {
		t.Errorf("ranking: got %s, %s", results[0].ID, results[1].ID)
	}
}

func TestMemoryIndex_dimensionChecks(t *testing.T) {
	idx, _ := NewMemoryIndex("mock", 3)
	ctx := context.Background()
	if err := idx.Add(ctx, []string{"a"}, [][]float32{{1, 0}}); err == nil {
		t.Error("expected error for wrong vector dimension")
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); err == nil {
		t.Error("expected error for wrong query dimension")
	}
}

func TestMemoryIndex_saveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx", "vector_index")
	ctx := context.Background()

	idx, _ := NewMemoryIndex("text-embedding-3-small", 2)
	_ = idx.Add(ctx, []string{"x", "y"}, [][]float32{{1, 0}, {0, 1}})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, _ := NewMemoryIndex("text-embedding-3-small", 2)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Size() != 2 {
		t.Errorf("size: got %d", loaded.Size())
	}
	results, err := loaded.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].ID != "x" {
		t.Errorf("got %s", results[0].ID)
	}
}

func TestMemoryIndex_loadModelMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vector_index")

	idx, _ := NewMemoryIndex("model-a", 2)
	_ = idx.Add(context.Background(), []string{"x"}, [][]float32{{1, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other, _ := NewMemoryIndex("model-b", 2)
	err := other.Load(path)
	if !errors.Is(err, ErrModelMismatch) {
		t.Errorf("expected ErrModelMismatch, got %v", err)
	}
}

func TestMemoryIndex_loadDimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vector_index")

	idx, _ := NewMemoryIndex("m", 2)
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	other, _ := NewMemoryIndex("m", 3)
	if err := other.Load(path); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestMemoryIndex_loadMissingFile(t *testing.T) {
	idx, _ := NewMemoryIndex("m", 2)
	err := idx.Load(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestMemoryIndex_searchEmpty(t *testing.T) {
	idx, _ := NewMemoryIndex("m", 2)
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil || results != nil {
		t.Errorf("got %v, %v", results, err)
	}
}
