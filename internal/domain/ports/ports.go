// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"
	"io"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// Tool is one selectable capability. Every capability answers a query with
// a normalised ToolResult.
type Tool interface {
	// Capability identifies the tool.
	Capability() entities.Capability

	// Run answers a single query.
	Run(ctx context.Context, query string) (*entities.ToolResult, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMService generates text responses from a language model.
type LLMService interface {
	// Generate produces a response for a single prompt. contextDocs is the
	// retrieved context already rendered into the prompt; adapters may use it
	// for logging only.
	Generate(ctx context.Context, prompt string, contextDocs []string) (string, error)

	// Chat produces the next assistant message for a conversation.
	Chat(ctx context.Context, messages []entities.ChatMessage) (string, error)
}

// VectorStore persists and queries document embeddings.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the most similar chunks to a query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Delete removes all chunks for a document.
	Delete(ctx context.Context, documentID string) error

	// Clear removes all data from the store.
	Clear(ctx context.Context) error
}

// DocumentLoader reads and parses documents from various formats.
type DocumentLoader interface {
	// Load reads a document from the given path.
	Load(ctx context.Context, path string) (*entities.Document, error)

	// LoadBytes builds a document from uploaded content. The extension of
	// name selects the format.
	LoadBytes(ctx context.Context, name string, data []byte) (*entities.Document, error)

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from binary document formats (PDF, DOCX, etc).
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf", "docx").
	SupportedFormats() []string
}

// DatasetLoader turns an uploaded tabular file into a Dataset.
type DatasetLoader interface {
	LoadDataset(ctx context.Context, name string, r io.Reader) (*entities.Dataset, error)
}

// TableEngine answers a natural-language question about a dataset. The
// returned string is the raw structured payload; callers validate it.
type TableEngine interface {
	Query(ctx context.Context, dataset *entities.Dataset, query string) (string, error)
}

// SessionStore owns conversation sessions keyed by (session id, capability).
// State is never shared across session ids.
type SessionStore interface {
	// Session returns the session, creating it when absent. created reports
	// whether this call created it.
	Session(sessionID string, capability entities.Capability) (session *entities.ConversationSession, created bool)

	// Lookup returns an existing session without creating one.
	Lookup(sessionID string, capability entities.Capability) (*entities.ConversationSession, bool)

	// Drop forgets every capability session of a session id.
	Drop(sessionID string)
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)

func (op FileOperation) String() string {
	switch op {
	case FileCreated:
		return "created"
	case FileModified:
		return "modified"
	case FileDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
