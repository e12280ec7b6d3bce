// Package entities contains core business entities.
// These are pure domain objects with no external dependencies: capabilities,
// resource availability, tool results and conversation sessions, plus the
// document/chunk types used by the document collaborator.
package entities

import "time"

// Document represents an uploaded source document (PDF, TXT, MD).
type Document struct {
	ID        string
	Name      string
	Path      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Chunk represents a piece of a document for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Source     string // Document name for citation
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk     Chunk
	Score     float64 // Similarity score
	SourceDoc string
}

// Role identifies who produced a message or session entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage represents a conversation turn sent to a language model.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
