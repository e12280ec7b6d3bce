package usecases

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// mockEmbedder implements ports.EmbeddingService for testing
type mockEmbedder struct {
	embedFn func(text string) ([]float32, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedFn != nil {
		return m.embedFn(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		emb, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = emb
	}
	return result, nil
}

// mockVectorStore implements ports.VectorStore for testing
type mockVectorStore struct {
	chunks  []entities.Chunk
	cleared int
	storeFn func(chunks []entities.Chunk) error
}

func (m *mockVectorStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	if m.storeFn != nil {
		return m.storeFn(chunks)
	}
	m.chunks = append(m.chunks, chunks...)
	return nil
}

func (m *mockVectorStore) Search(ctx context.Context, emb []float32, topK int) ([]entities.QueryResult, error) {
	var results []entities.QueryResult
	for i, c := range m.chunks {
		if i >= topK {
			break
		}
		results = append(results, entities.QueryResult{Chunk: c, Score: 0.9})
	}
	return results, nil
}

func (m *mockVectorStore) Delete(ctx context.Context, docID string) error {
	return nil
}

func (m *mockVectorStore) Clear(ctx context.Context) error {
	m.chunks = nil
	m.cleared++
	return nil
}

// mockLLM implements ports.LLMService for testing
type mockLLM struct {
	response string
	err      error
	prompts  []string
	chats    [][]entities.ChatMessage
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, contextDocs []string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked answer", nil
}

func (m *mockLLM) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	m.chats = append(m.chats, messages)
	if m.err != nil {
		return "", m.err
	}
	if m.response != "" {
		return m.response, nil
	}
	return "mocked reply", nil
}

// mockLoader implements ports.DocumentLoader for testing
type mockLoader struct{}

func (mockLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return nil, errors.New("not supported")
}

func (mockLoader) LoadBytes(ctx context.Context, name string, data []byte) (*entities.Document, error) {
	return &entities.Document{ID: "doc-" + name, Name: filepath.Base(name), Content: string(data)}, nil
}

func (mockLoader) SupportedExtensions() []string { return []string{".txt"} }

// stubTool implements ports.Tool with a canned result.
type stubTool struct {
	capability entities.Capability
	result     *entities.ToolResult
	err        error
	calls      int
}

func (s *stubTool) Capability() entities.Capability { return s.capability }

func (s *stubTool) Run(ctx context.Context, query string) (*entities.ToolResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	return entities.TextAnswer(s.capability.String() + " answer"), nil
}

// funcTool implements ports.Tool with an arbitrary run function.
type funcTool struct {
	capability entities.Capability
	run        func(ctx context.Context, query string) (*entities.ToolResult, error)
}

func (f funcTool) Capability() entities.Capability { return f.capability }

func (f funcTool) Run(ctx context.Context, query string) (*entities.ToolResult, error) {
	return f.run(ctx, query)
}

// mapSessions implements ports.SessionStore with a plain map.
type mapSessions struct {
	sessions map[string]*entities.ConversationSession
}

func newMapSessions() *mapSessions {
	return &mapSessions{sessions: make(map[string]*entities.ConversationSession)}
}

func (m *mapSessions) key(id string, c entities.Capability) string {
	return id + "/" + c.String()
}

func (m *mapSessions) Session(id string, c entities.Capability) (*entities.ConversationSession, bool) {
	if s, ok := m.sessions[m.key(id, c)]; ok {
		return s, false
	}
	s := entities.NewConversationSession(id, c)
	m.sessions[m.key(id, c)] = s
	return s, true
}

func (m *mapSessions) Lookup(id string, c entities.Capability) (*entities.ConversationSession, bool) {
	s, ok := m.sessions[m.key(id, c)]
	return s, ok
}

func (m *mapSessions) Drop(id string) {
	for _, c := range entities.Capabilities {
		delete(m.sessions, m.key(id, c))
	}
}

// stubEngine implements ports.TableEngine.
type stubEngine struct {
	payload string
	err     error
	queries []string
}

func (s *stubEngine) Query(ctx context.Context, ds *entities.Dataset, query string) (string, error) {
	s.queries = append(s.queries, query)
	return s.payload, s.err
}

func allTools() (Toolset, *stubTool, *stubTool, *stubTool) {
	chat := &stubTool{capability: entities.CapabilityChat}
	doc := &stubTool{capability: entities.CapabilityDocumentQA}
	table := &stubTool{capability: entities.CapabilityTableQA}
	return Toolset{Chat: chat, Document: doc, Table: table}, chat, doc, table
}

func bothReady() entities.Availability {
	return entities.Availability{
		DocumentUploaded:   true,
		DocumentIndexReady: true,
		DatasetUploaded:    true,
		Dataset:            &entities.Dataset{Name: "sales.csv"},
	}
}
