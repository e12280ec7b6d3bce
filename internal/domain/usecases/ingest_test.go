package usecases

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

func TestIngestUseCase_ChunksDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	uc := NewIngestUseCase(embedder, store, 100, 20)

	doc := &entities.Document{
		ID:      "doc-1",
		Name:    "test.txt",
		Content: "This is some content that should be chunked properly.",
	}

	n, err := uc.Ingest(context.Background(), doc)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if n != 1 || len(store.chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(store.chunks))
	}
	if store.chunks[0].Source != "test.txt" {
		t.Errorf("chunk should carry its source name, got %q", store.chunks[0].Source)
	}
}

func TestIngestUseCase_EmptyDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	uc := NewIngestUseCase(embedder, store, 100, 20)

	doc := &entities.Document{ID: "empty", Content: "  \n "}
	n, err := uc.Ingest(context.Background(), doc)

	if err != nil {
		t.Error("empty doc should not error")
	}
	if n != 0 || len(store.chunks) != 0 {
		t.Error("empty doc should produce no chunks")
	}
}

func TestIngestUseCase_LargeDocument(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	uc := NewIngestUseCase(embedder, store, 50, 10)

	doc := &entities.Document{
		ID:      "big",
		Content: strings.Repeat("word ", 40),
	}

	if _, err := uc.Ingest(context.Background(), doc); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if len(store.chunks) < 2 {
		t.Errorf("expected multiple chunks, got %d", len(store.chunks))
	}
	seen := map[string]bool{}
	for i, c := range store.chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d", i, c.Index)
		}
		if len(c.Content) > 50 {
			t.Errorf("chunk %d exceeds chunk size: %d", i, len(c.Content))
		}
		if seen[c.ID] {
			t.Errorf("duplicate chunk id %s", c.ID)
		}
		seen[c.ID] = true
	}
}

func TestIngestUseCase_NoSpacesStillTerminates(t *testing.T) {
	uc := NewIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, 10, 3)
	chunks := uc.chunkDocument(&entities.Document{ID: "x", Content: strings.Repeat("a", 95)})

	if len(chunks) == 0 || len(chunks) > 20 {
		t.Fatalf("unexpected chunk count %d", len(chunks))
	}
}

func TestIngestUseCase_EmbeddingFailure(t *testing.T) {
	embedder := &mockEmbedder{embedFn: func(string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}}
	uc := NewIngestUseCase(embedder, &mockVectorStore{}, 100, 20)

	_, err := uc.Ingest(context.Background(), &entities.Document{ID: "d", Content: "some text"})
	if !errors.Is(err, entities.ErrModelInvocation) {
		t.Errorf("expected ErrModelInvocation, got %v", err)
	}
}

func TestIngestUseCase_Defaults(t *testing.T) {
	uc := NewIngestUseCase(&mockEmbedder{}, &mockVectorStore{}, 0, -1)
	if uc.chunkSize != DefaultChunkSize || uc.chunkOverlap != DefaultChunkOverlap {
		t.Errorf("unexpected defaults: %d/%d", uc.chunkSize, uc.chunkOverlap)
	}
}

func TestIngestUseCase_Delete(t *testing.T) {
	embedder := &mockEmbedder{}
	store := &mockVectorStore{}
	uc := NewIngestUseCase(embedder, store, 100, 20)

	err := uc.Delete(context.Background(), "doc-1")
	if err != nil {
		t.Errorf("delete failed: %v", err)
	}
}
