// Package tableqa answers dataset questions with a chat model. The model
// sees a rendering of the dataset and must reply with a JSON payload.
package tableqa

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// DefaultPreviewRows is how many data rows are shown to the model.
const DefaultPreviewRows = 200

const systemPrompt = `You are a data analysis assistant. You are given a CSV dataset and a user request. Your response format depends on the type of user request:

1. For text-based answers, respond in the following JSON format:
   {"answer": "<your answer here>"}

2. If the user requests a table, respond in the following format:
   {"table": {"columns": ["column1", "column2", ...], "data": [[value1, value2, ...], [...]]}}

3. If the user's request is best represented as a bar chart:
   {"bar": {"columns": ["A", "B", ...], "data": [v1, v2, ...]}}

4. If the request is suitable for a line chart:
   {"line": {"columns": ["A", "B", ...], "data": [v1, v2, ...]}}

5. If the request is suitable for a scatter plot:
   {"scatter": {"columns": ["A", "B", ...], "data": [[x1, y1], [x2, y2], ...]}}

Return all outputs strictly as a JSON string with double quotes. Do not wrap the JSON in prose.`

// LLMEngine implements ports.TableEngine on top of a chat model.
type LLMEngine struct {
	llm         ports.LLMService
	previewRows int
	logger      *zap.Logger
}

// Option configures an LLMEngine.
type Option func(*LLMEngine)

// WithPreviewRows caps the rows rendered into the prompt.
func WithPreviewRows(n int) Option {
	return func(e *LLMEngine) {
		if n > 0 {
			e.previewRows = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *LLMEngine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewLLMEngine creates a table engine.
func NewLLMEngine(llm ports.LLMService, opts ...Option) *LLMEngine {
	e := &LLMEngine{
		llm:         llm,
		previewRows: DefaultPreviewRows,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query returns the model's raw reply. Validation happens in the caller.
func (e *LLMEngine) Query(ctx context.Context, ds *entities.Dataset, query string) (string, error) {
	if ds == nil {
		return "", errors.New("no dataset")
	}
	rendered, err := e.render(ds)
	if err != nil {
		return "", err
	}

	messages := []entities.ChatMessage{
		{Role: entities.RoleSystem, Content: systemPrompt},
		{Role: entities.RoleUser, Content: rendered + "\nUser request:\n" + query},
	}

	e.logger.Debug("querying dataset",
		zap.String("dataset", ds.Name),
		zap.Int("rows", ds.NumRows()),
		zap.Int("prompt_bytes", len(rendered)),
	)
	return e.llm.Chat(ctx, messages)
}

func (e *LLMEngine) render(ds *entities.Dataset) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset %q: %d rows, %d columns.\n", ds.Name, ds.NumRows(), len(ds.Columns))

	rows := ds.Rows
	if len(rows) > e.previewRows {
		rows = rows[:e.previewRows]
		fmt.Fprintf(&b, "Only the first %d rows are shown.\n", e.previewRows)
	}

	b.WriteString("```csv\n")
	w := csv.NewWriter(&b)
	if err := w.Write(ds.Columns); err != nil {
		return "", fmt.Errorf("rendering header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("rendering rows: %w", err)
	}
	b.WriteString("```\n")
	return b.String(), nil
}
