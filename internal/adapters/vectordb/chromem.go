package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

const (
	metaDocumentID = "document_id"
	metaSource     = "source"
	metaIndex      = "index"
)

// ChromemStore implements ports.VectorStore with one chromem-go collection.
// Several stores can share a DB under different collection names.
type ChromemStore struct {
	mu   sync.RWMutex
	db   *chromem.DB
	name string
	col  *chromem.Collection
}

// OpenChromemDB opens a persistent chromem DB in dir, or an in-memory one
// when dir is empty.
func OpenChromemDB(dir string) (*chromem.DB, error) {
	if dir == "" {
		return chromem.NewDB(), nil
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}
	return db, nil
}

// NewChromemStore creates a store over the named collection. Chunks always
// carry their own embeddings, so the collection needs no embedding func.
func NewChromemStore(db *chromem.DB, name string) (*ChromemStore, error) {
	col, err := db.GetOrCreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", name, err)
	}
	return &ChromemStore{db: db, name: name, col: col}, nil
}

// Store saves chunks with their embeddings.
func (s *ChromemStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %s has no embedding", c.ID)
		}
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: c.Embedding,
			Metadata: map[string]string{
				metaDocumentID: c.DocumentID,
				metaSource:     c.Source,
				metaIndex:      strconv.Itoa(c.Index),
			},
		}
	}
	if err := s.col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search finds the most similar chunks to a query embedding.
func (s *ChromemStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.col.Count()
	if topK < n {
		n = topK
	}
	if n <= 0 {
		return nil, nil
	}

	hits, err := s.col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]entities.QueryResult, len(hits))
	for i, h := range hits {
		index, _ := strconv.Atoi(h.Metadata[metaIndex])
		results[i] = entities.QueryResult{
			Chunk: entities.Chunk{
				ID:         h.ID,
				DocumentID: h.Metadata[metaDocumentID],
				Source:     h.Metadata[metaSource],
				Content:    h.Content,
				Index:      index,
				Embedding:  h.Embedding,
			},
			Score:     float64(h.Similarity),
			SourceDoc: h.Metadata[metaSource],
		}
	}
	return results, nil
}

// Delete removes all chunks for a document.
func (s *ChromemStore) Delete(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.col.Delete(ctx, map[string]string{metaDocumentID: documentID}, nil); err != nil {
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}
	return nil
}

// Clear drops and recreates the collection.
func (s *ChromemStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("dropping collection %s: %w", s.name, err)
	}
	col, err := s.db.GetOrCreateCollection(s.name, nil, nil)
	if err != nil {
		return fmt.Errorf("recreating collection %s: %w", s.name, err)
	}
	s.col = col
	return nil
}

// Close removes the collection from the shared DB.
func (s *ChromemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteCollection(s.name)
}
