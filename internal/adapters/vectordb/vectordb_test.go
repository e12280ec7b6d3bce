package vectordb

import (
	"context"
	"math"
	"testing"

	chromem "github.com/philippgille/chromem-go"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

func testChunks() []entities.Chunk {
	return []entities.Chunk{
		{ID: "c1", DocumentID: "doc1", Source: "a.pdf", Content: "hello", Index: 0, Embedding: []float32{1.0, 0.0, 0.0}},
		{ID: "c2", DocumentID: "doc1", Source: "a.pdf", Content: "world", Index: 1, Embedding: []float32{0.0, 1.0, 0.0}},
		{ID: "c3", DocumentID: "doc2", Source: "b.pdf", Content: "other", Index: 0, Embedding: []float32{0.0, 0.0, 1.0}},
	}
}

// stores returns every store implementation, each empty.
func stores(t *testing.T) map[string]ports.VectorStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(t.TempDir(), "test")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	chrom, err := NewChromemStore(chromem.NewDB(), "test")
	if err != nil {
		t.Fatalf("failed to create chromem store: %v", err)
	}

	return map[string]ports.VectorStore{
		"memory":  NewInMemoryStore(),
		"sqlite":  sqlite,
		"chromem": chrom,
	}
}

func TestStores_StoreAndSearch(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := store.Store(ctx, testChunks()); err != nil {
				t.Fatalf("store failed: %v", err)
			}

			results, err := store.Search(ctx, []float32{1.0, 0.1, 0.0}, 2)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(results) != 2 {
				t.Fatalf("expected 2 results, got %d", len(results))
			}
			if results[0].Chunk.ID != "c1" {
				t.Errorf("c1 should be top result, got %s", results[0].Chunk.ID)
			}
			if results[0].SourceDoc != "a.pdf" || results[0].Chunk.Source != "a.pdf" {
				t.Errorf("source not preserved: %+v", results[0])
			}
			if results[0].Score < results[1].Score {
				t.Error("results should be sorted by score")
			}
		})
	}
}

func TestStores_TopKLargerThanStore(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Store(ctx, testChunks())

			results, err := store.Search(ctx, []float32{0, 0, 1}, 10)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}
			if len(results) != 3 {
				t.Errorf("expected all 3 chunks, got %d", len(results))
			}
		})
	}
}

func TestStores_Delete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Store(ctx, testChunks())

			if err := store.Delete(ctx, "doc1"); err != nil {
				t.Fatalf("delete failed: %v", err)
			}

			results, _ := store.Search(ctx, []float32{1, 0, 0}, 10)
			if len(results) != 1 || results[0].Chunk.ID != "c3" {
				t.Errorf("only doc2 should remain, got %+v", results)
			}
		})
	}
}

func TestStores_Clear(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Store(ctx, testChunks())

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear failed: %v", err)
			}

			results, err := store.Search(ctx, []float32{1, 0, 0}, 10)
			if err != nil {
				t.Fatalf("search after clear failed: %v", err)
			}
			if len(results) != 0 {
				t.Error("store should be empty after clear")
			}

			// still usable
			if err := store.Store(ctx, testChunks()[:1]); err != nil {
				t.Fatalf("store after clear failed: %v", err)
			}
		})
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewSQLiteStore(dir, "persist")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	store.Store(ctx, testChunks())
	store.Close()

	reopened, err := NewSQLiteStore(dir, "persist")
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.ChunkCount(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 persisted chunks, got %d", count)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 2}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}
