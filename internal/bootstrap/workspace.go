package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
	"github.com/0xcro3dile/agent-multitool/internal/domain/usecases"
)

// Mode selects how a turn is dispatched.
type Mode string

const (
	ModeSmart Mode = "smart"
	ModeChat  Mode = "chat"
	ModePDF   Mode = "pdf"
	ModeCSV   Mode = "csv"
)

// ParseMode accepts the wire names above; an empty string means smart.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeSmart, nil
	case ModeSmart, ModeChat, ModePDF, ModeCSV:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", entities.ErrPreconditionViolation, s)
	}
}

// Resources describes what a workspace currently holds.
type Resources struct {
	Document        string                `json:"document,omitempty"`
	DocumentIndexed bool                  `json:"document_indexed"`
	Dataset         string                `json:"dataset,omitempty"`
	DatasetRows     int                   `json:"dataset_rows,omitempty"`
	DatasetColumns  []string              `json:"dataset_columns,omitempty"`
	Capabilities    []entities.Capability `json:"capabilities"`
}

// Workspace is one user session: its uploaded resources, the memories of
// its conversational capabilities and its transcripts. Turns on a
// workspace are serialized.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	c       *Container
	logger  *zap.Logger
	store   ports.VectorStore
	release func() error

	mu               sync.Mutex
	chatMemory       *entities.Memory
	document         *usecases.DocumentQA
	documentName     string
	documentUploaded bool
	dataset          *entities.Dataset
}

func newWorkspace(id string, c *Container, store ports.VectorStore, release func() error) *Workspace {
	w := &Workspace{
		ID:         id,
		CreatedAt:  time.Now(),
		c:          c,
		logger:     c.Logger.With(zap.String("session_id", id)),
		store:      store,
		release:    release,
		chatMemory: entities.NewMemory(),
	}
	if c.LLM != nil && c.Embedder != nil {
		w.document = usecases.NewDocumentQA(c.Loader, c.Embedder, store, c.LLM, entities.NewMemory(),
			usecases.WithTopK(c.Config.RAG.TopK),
			usecases.WithChunking(c.Config.RAG.ChunkSize, c.Config.RAG.ChunkOverlap),
			usecases.WithDocumentLogger(w.logger),
		)
	}
	return w
}

// LoadDocument replaces the workspace document. The document counts as
// uploaded even when indexing fails; routing then skips it until a later
// upload succeeds.
func (w *Workspace) LoadDocument(ctx context.Context, name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.document == nil {
		return fmt.Errorf("document upload: %w", entities.ErrMissingCredential)
	}
	w.documentUploaded = true
	w.documentName = filepath.Base(name)
	if err := w.document.Load(ctx, name, data); err != nil {
		w.logger.Warn("document not indexed", zap.String("document", w.documentName), zap.Error(err))
		return err
	}
	return nil
}

// LoadDocumentFile reads and loads a document from disk.
func (w *Workspace) LoadDocumentFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return w.LoadDocument(ctx, path, data)
}

// UnloadDocument drops the document and its index.
func (w *Workspace) UnloadDocument(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.documentUploaded = false
	w.documentName = ""
	if w.document == nil {
		return nil
	}
	return w.document.Unload(ctx)
}

// LoadDataset replaces the workspace dataset.
func (w *Workspace) LoadDataset(ctx context.Context, name string, r io.Reader) error {
	ds, err := w.c.Datasets.LoadDataset(ctx, name, r)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", filepath.Base(name), err)
	}

	w.mu.Lock()
	w.dataset = ds
	w.mu.Unlock()

	w.logger.Info("dataset loaded",
		zap.String("dataset", ds.Name),
		zap.Int("rows", ds.NumRows()),
		zap.Int("columns", len(ds.Columns)),
	)
	return nil
}

// LoadDatasetFile reads and loads a dataset from disk.
func (w *Workspace) LoadDatasetFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return w.LoadDataset(ctx, path, f)
}

// UnloadDataset drops the dataset.
func (w *Workspace) UnloadDataset() {
	w.mu.Lock()
	w.dataset = nil
	w.mu.Unlock()
}

// Turn handles one user query. Smart mode routes by keywords; the other
// modes address one capability directly. Failed turns leave an error entry
// in the transcript of the capability that failed.
func (w *Workspace) Turn(ctx context.Context, mode Mode, query string) (*usecases.Envelope, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	availability := w.availability()
	router := usecases.NewRouter(w.toolset(), usecases.WithRouterLogger(w.logger))
	orchestrator := w.orchestrator(router)

	if mode == ModeSmart || mode == "" {
		env, err := orchestrator.HandleTurn(ctx, w.ID, query, availability)
		if err != nil {
			orchestrator.RecordFailure(w.ID, router.Select(query, availability).Capability, err)
		}
		return env, err
	}

	capability, err := entities.ParseCapability(string(mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entities.ErrPreconditionViolation, err)
	}
	switch {
	case capability == entities.CapabilityDocumentQA && !availability.DocumentReady():
		return nil, fmt.Errorf("%w: no indexed document", entities.ErrResourceNotReady)
	case capability == entities.CapabilityTableQA && !availability.DatasetReady():
		return nil, fmt.Errorf("%w: no dataset", entities.ErrResourceNotReady)
	}

	env, err := orchestrator.HandleDirect(ctx, w.ID, capability, query)
	if err != nil && !errors.Is(err, entities.ErrMissingCredential) {
		orchestrator.RecordFailure(w.ID, capability, err)
	}
	return env, err
}

// History returns the transcript of one capability.
func (w *Workspace) History(c entities.Capability) []entities.Entry {
	session, ok := w.c.Sessions.Lookup(w.ID, c)
	if !ok {
		return nil
	}
	return session.Entries()
}

// Resources reports the uploaded resources and the capabilities a turn
// could use right now.
func (w *Workspace) Resources() Resources {
	w.mu.Lock()
	defer w.mu.Unlock()

	res := Resources{
		Document:        w.documentName,
		DocumentIndexed: w.document != nil && w.document.Ready(),
		Capabilities:    []entities.Capability{},
	}
	if w.dataset != nil {
		res.Dataset = w.dataset.Name
		res.DatasetRows = w.dataset.NumRows()
		res.DatasetColumns = w.dataset.Columns
	}
	tools := w.toolset()
	for _, c := range entities.Capabilities {
		if _, ok := tools.Lookup(c); ok {
			res.Capabilities = append(res.Capabilities, c)
		}
	}
	return res
}

func (w *Workspace) availability() entities.Availability {
	return entities.Availability{
		DocumentUploaded:   w.documentUploaded,
		DocumentIndexReady: w.documentUploaded && w.document != nil && w.document.Ready(),
		DatasetUploaded:    w.dataset != nil,
		Dataset:            w.dataset,
	}
}

// toolset builds the collaborators available for this turn. A capability
// is absent when its model or resource is.
func (w *Workspace) toolset() usecases.Toolset {
	var tools usecases.Toolset
	if w.c.LLM != nil {
		tools.Chat = usecases.NewChatTool(w.c.LLM, w.chatMemory, usecases.DefaultChatPrompt)
	}
	if w.document != nil && w.document.Ready() {
		tools.Document = w.document
	}
	if w.c.TableEngine != nil && w.dataset != nil {
		tools.Table = usecases.NewTableQA(w.c.TableEngine, w.dataset)
	}
	return tools
}

func (w *Workspace) orchestrator(router *usecases.Router) *usecases.Orchestrator {
	greetings := w.c.Config.Session
	opts := []usecases.OrchestratorOption{
		usecases.WithLogger(w.logger),
		usecases.WithGreeting(entities.CapabilityChat, greetings.GreetingChat),
		usecases.WithGreeting(entities.CapabilityDocumentQA, greetings.GreetingPDF),
		usecases.WithGreeting(entities.CapabilityTableQA, greetings.GreetingCSV),
		usecases.WithMemory(entities.CapabilityChat, w.chatMemory),
	}
	if w.document != nil {
		opts = append(opts, usecases.WithMemory(entities.CapabilityDocumentQA, w.document.Memory()))
	}
	return usecases.NewOrchestrator(router, w.c.Sessions, opts...)
}

func (w *Workspace) close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.c.Sessions.Drop(w.ID)
	var err error
	if w.document != nil {
		err = w.document.Unload(ctx)
	}
	return errors.Join(err, w.release())
}
