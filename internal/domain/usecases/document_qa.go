package usecases

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// DocumentAnswer is the answer of the document capability.
type DocumentAnswer struct {
	Answer string
	// Question is the standalone question used for retrieval.
	Question string
	Sources  []entities.QueryResult
	History  []entities.ChatMessage
}

// DocumentQA answers questions about one loaded document. Follow-up
// questions are rewritten into standalone ones using the conversation
// memory before retrieval. Callers serialise Load and Ask.
type DocumentQA struct {
	loader      ports.DocumentLoader
	embedder    ports.EmbeddingService
	vectorStore ports.VectorStore
	llm         ports.LLMService
	memory      *entities.Memory
	logger      *zap.Logger

	topK         int
	chunkSize    int
	chunkOverlap int

	ingest   *IngestUseCase
	document *entities.Document
}

// DocumentQAOption configures a DocumentQA.
type DocumentQAOption func(*DocumentQA)

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) DocumentQAOption {
	return func(d *DocumentQA) {
		if k > 0 {
			d.topK = k
		}
	}
}

// WithChunking sets the splitter settings.
func WithChunking(size, overlap int) DocumentQAOption {
	return func(d *DocumentQA) {
		d.chunkSize = size
		d.chunkOverlap = overlap
	}
}

// WithDocumentLogger sets the logger.
func WithDocumentLogger(l *zap.Logger) DocumentQAOption {
	return func(d *DocumentQA) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDocumentQA creates the document capability. A nil memory gets a fresh
// buffer.
func NewDocumentQA(
	loader ports.DocumentLoader,
	embedder ports.EmbeddingService,
	vectorStore ports.VectorStore,
	llm ports.LLMService,
	memory *entities.Memory,
	opts ...DocumentQAOption,
) *DocumentQA {
	if memory == nil {
		memory = entities.NewMemory()
	}
	d := &DocumentQA{
		loader:       loader,
		embedder:     embedder,
		vectorStore:  vectorStore,
		llm:          llm,
		memory:       memory,
		logger:       zap.NewNop(),
		topK:         DefaultTopK,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.ingest = NewIngestUseCase(embedder, vectorStore, d.chunkSize, d.chunkOverlap)
	return d
}

// Capability implements ports.Tool.
func (d *DocumentQA) Capability() entities.Capability {
	return entities.CapabilityDocumentQA
}

// Memory returns the conversation memory.
func (d *DocumentQA) Memory() *entities.Memory {
	return d.memory
}

// Ready reports whether a document has been indexed.
func (d *DocumentQA) Ready() bool {
	return d.document != nil
}

// Load parses uploaded bytes and indexes them, replacing any previous
// document.
func (d *DocumentQA) Load(ctx context.Context, name string, data []byte) error {
	doc, err := d.loader.LoadBytes(ctx, name, data)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	return d.LoadDocument(ctx, doc)
}

// LoadDocument indexes an already loaded document, replacing any previous
// one.
func (d *DocumentQA) LoadDocument(ctx context.Context, doc *entities.Document) error {
	d.document = nil
	if err := d.vectorStore.Clear(ctx); err != nil {
		return fmt.Errorf("clearing index: %w", err)
	}

	n, err := d.ingest.Ingest(ctx, doc)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", doc.Name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s has no extractable text", entities.ErrResourceNotReady, doc.Name)
	}

	d.document = doc
	d.logger.Info("document indexed", zap.String("document", doc.Name), zap.Int("chunks", n))
	return nil
}

// Unload forgets the indexed document.
func (d *DocumentQA) Unload(ctx context.Context) error {
	d.document = nil
	return d.vectorStore.Clear(ctx)
}

// Ask answers a question about the loaded document and records the
// exchange in memory.
func (d *DocumentQA) Ask(ctx context.Context, query string) (*DocumentAnswer, error) {
	if !d.Ready() {
		return nil, fmt.Errorf("%w: ask called before a document was loaded", entities.ErrPreconditionViolation)
	}

	question, err := d.standaloneQuestion(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := d.Search(ctx, question)
	if err != nil {
		return nil, err
	}

	contextParts := make([]string, len(results))
	for i, r := range results {
		contextParts[i] = fmt.Sprintf("[Source: %s]\n%s", r.SourceDoc, r.Chunk.Content)
	}

	answer, err := d.llm.Generate(ctx, buildAnswerPrompt(question, contextParts), contextParts)
	if err != nil {
		return nil, fmt.Errorf("%w: generating answer: %w", entities.ErrModelInvocation, err)
	}
	answer = strings.TrimSpace(answer)

	d.memory.Append(entities.RoleUser, query)
	d.memory.Append(entities.RoleAssistant, answer)

	return &DocumentAnswer{
		Answer:   answer,
		Question: question,
		Sources:  results,
		History:  d.memory.Messages(),
	}, nil
}

// Run implements ports.Tool.
func (d *DocumentQA) Run(ctx context.Context, query string) (*entities.ToolResult, error) {
	ans, err := d.Ask(ctx, query)
	if err != nil {
		return nil, err
	}
	return entities.TextAnswer(ans.Answer), nil
}

// Search only retrieves relevant chunks without generation.
func (d *DocumentQA) Search(ctx context.Context, query string) ([]entities.QueryResult, error) {
	embedding, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", entities.ErrModelInvocation, err)
	}
	results, err := d.vectorStore.Search(ctx, embedding, d.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: searching vectors: %w", entities.ErrModelInvocation, err)
	}
	for i := range results {
		if results[i].SourceDoc == "" {
			results[i].SourceDoc = results[i].Chunk.Source
		}
	}
	return results, nil
}

func (d *DocumentQA) standaloneQuestion(ctx context.Context, query string) (string, error) {
	history := d.memory.Messages()
	if len(history) == 0 {
		return query, nil
	}
	rewritten, err := d.llm.Generate(ctx, buildCondensePrompt(history, query), nil)
	if err != nil {
		return "", fmt.Errorf("%w: condensing question: %w", entities.ErrModelInvocation, err)
	}
	if rewritten = strings.TrimSpace(rewritten); rewritten == "" {
		return query, nil
	}
	d.logger.Debug("condensed follow-up question", zap.String("question", rewritten))
	return rewritten, nil
}

func buildCondensePrompt(history []entities.ChatMessage, query string) string {
	var sb strings.Builder
	sb.WriteString("Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question.\n\n")
	sb.WriteString("Chat History:\n")
	for _, m := range history {
		switch m.Role {
		case entities.RoleUser:
			sb.WriteString("Human: ")
		default:
			sb.WriteString("Assistant: ")
		}
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("Follow Up Input: ")
	sb.WriteString(query)
	sb.WriteString("\nStandalone question:")
	return sb.String()
}

func buildAnswerPrompt(query string, context []string) string {
	var sb strings.Builder
	sb.WriteString("Use the following pieces of context to answer the question at the end. ")
	sb.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(context, "\n\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")
	return sb.String()
}
