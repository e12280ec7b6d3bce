// Package bootstrap wires adapters and use cases into per-session
// workspaces.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/adapters/dataset"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/embedding"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/llm"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/loader"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/parser"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/sessionstore"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/tableqa"
	"github.com/0xcro3dile/agent-multitool/internal/adapters/vectordb"
	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
	"github.com/0xcro3dile/agent-multitool/internal/infrastructure/config"
)

// Container holds the process-wide collaborators. Model-backed fields are
// nil when no credential is configured.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	LLM         ports.LLMService
	Embedder    ports.EmbeddingService
	TableEngine ports.TableEngine
	Parser      *parser.PythonPDFParser
	Loader      *loader.MultiLoader
	Datasets    ports.DatasetLoader
	Sessions    *sessionstore.CacheStore

	chromemDB *chromem.DB

	mu         sync.Mutex
	workspaces map[string]*Workspace
	stops      []func()
}

// New builds a container from configuration. A missing OpenAI key is not
// an error: the chat, document and table capabilities are simply absent.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Datasets:   dataset.NewCSVLoader(cfg.Table.MaxRows),
		Sessions:   sessionstore.NewCacheStore(),
		workspaces: make(map[string]*Workspace),
	}

	if err := c.buildModels(); err != nil {
		return nil, err
	}

	if cfg.PDF.ServiceURL != "" || cfg.PDF.ServiceDir != "" {
		c.Parser = parser.NewPythonPDFParser(cfg.PDF.ServiceURL, logger.Named("pdf"))
		c.Loader = loader.NewMultiLoader(c.Parser)
	} else {
		c.Loader = loader.NewMultiLoader(nil)
	}

	if cfg.Vector.Backend == "chromem" {
		db, err := vectordb.OpenChromemDB(cfg.Vector.DataDir)
		if err != nil {
			return nil, err
		}
		c.chromemDB = db
	}

	logger.Info("container ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("llm", c.LLM != nil),
		zap.Bool("pdf_parser", c.Parser != nil),
		zap.String("vector_backend", cfg.Vector.Backend),
	)
	return c, nil
}

func (c *Container) buildModels() error {
	cfg := c.Config
	switch cfg.LLM.Provider {
	case "ollama":
		c.LLM = llm.NewOllamaLLMAdapter(cfg.Ollama.BaseURL, cfg.Ollama.Model, c.Logger.Named("llm"))
		c.Embedder = embedding.NewOllamaAdapter(cfg.Ollama.BaseURL, cfg.Ollama.EmbeddingModel, c.Logger.Named("embedding"))
		c.TableEngine = tableqa.NewLLMEngine(c.LLM, c.tableOptions()...)
		return nil
	default:
		chat, err := llm.NewOpenAIAdapter(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.ChatModel,
		}, c.Logger.Named("llm"))
		if errors.Is(err, entities.ErrMissingCredential) {
			c.Logger.Warn("no OpenAI API key configured; model-backed capabilities disabled")
			return nil
		}
		if err != nil {
			return err
		}
		c.LLM = chat

		table, err := llm.NewOpenAIAdapter(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.TableModel,
		}, c.Logger.Named("table"))
		if err != nil {
			return err
		}
		c.TableEngine = tableqa.NewLLMEngine(table, c.tableOptions()...)

		embedder, err := embedding.NewOpenAIAdapter(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.EmbeddingModel, c.Logger.Named("embedding"))
		if err != nil {
			return err
		}
		c.Embedder = embedder
		return nil
	}
}

func (c *Container) tableOptions() []tableqa.Option {
	return []tableqa.Option{
		tableqa.WithPreviewRows(c.Config.Table.PreviewRows),
		tableqa.WithLogger(c.Logger.Named("tableqa")),
	}
}

// StartPDFService launches the bundled PDF service when a script directory
// is configured. It is stopped by Close.
func (c *Container) StartPDFService(ctx context.Context) error {
	if c.Parser == nil || c.Config.PDF.ServiceDir == "" {
		return nil
	}
	if c.Parser.IsServiceHealthy(ctx) {
		return nil
	}
	stop, err := c.Parser.StartService(ctx, c.Config.PDF.ServiceDir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.stops = append(c.stops, stop)
	c.mu.Unlock()
	return nil
}

// newVectorStore opens the index backing one workspace. The returned func
// releases it.
func (c *Container) newVectorStore(workspaceID string) (ports.VectorStore, func() error, error) {
	name := "ws-" + workspaceID
	switch c.Config.Vector.Backend {
	case "sqlite":
		store, err := vectordb.NewSQLiteStore(c.Config.Vector.DataDir, name)
		if err != nil {
			return nil, nil, err
		}
		return store, func() error {
			err := store.Close()
			return errors.Join(err, os.Remove(store.Path()))
		}, nil
	case "chromem":
		store, err := vectordb.NewChromemStore(c.chromemDB, name)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return vectordb.NewInMemoryStore(), func() error { return nil }, nil
	}
}

// CreateWorkspace starts a new session with a random id.
func (c *Container) CreateWorkspace() (*Workspace, error) {
	return c.OpenWorkspace(uuid.NewString())
}

// OpenWorkspace returns the workspace for id, creating it if needed.
func (c *Container) OpenWorkspace(id string) (*Workspace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ws, ok := c.workspaces[id]; ok {
		return ws, nil
	}
	store, release, err := c.newVectorStore(id)
	if err != nil {
		return nil, fmt.Errorf("opening index for session %s: %w", id, err)
	}
	ws := newWorkspace(id, c, store, release)
	c.workspaces[id] = ws
	c.Logger.Info("session opened", zap.String("session_id", id))
	return ws, nil
}

// Workspace returns an existing workspace.
func (c *Container) Workspace(id string) (*Workspace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ws, ok := c.workspaces[id]
	return ws, ok
}

// WorkspaceIDs lists open sessions in sorted order.
func (c *Container) WorkspaceIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.workspaces))
	for id := range c.workspaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CloseWorkspace releases a session and forgets its history. It reports
// whether the session existed.
func (c *Container) CloseWorkspace(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	ws, ok := c.workspaces[id]
	delete(c.workspaces, id)
	c.mu.Unlock()

	if !ok {
		return false, nil
	}
	c.Logger.Info("session closed", zap.String("session_id", id))
	return true, ws.close(ctx)
}

// Close releases every workspace and stops helper processes.
func (c *Container) Close() error {
	var errs []error
	for _, id := range c.WorkspaceIDs() {
		if _, err := c.CloseWorkspace(context.Background(), id); err != nil {
			errs = append(errs, err)
		}
	}

	c.mu.Lock()
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	return errors.Join(errs...)
}
