package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// TableQA answers questions about a dataset. The engine returns a raw
// structured payload which is validated by ParseTablePayload.
type TableQA struct {
	engine  ports.TableEngine
	dataset *entities.Dataset
}

// NewTableQA creates the table capability over a dataset.
func NewTableQA(engine ports.TableEngine, dataset *entities.Dataset) *TableQA {
	return &TableQA{engine: engine, dataset: dataset}
}

// Capability implements ports.Tool.
func (t *TableQA) Capability() entities.Capability {
	return entities.CapabilityTableQA
}

// Dataset returns the dataset the tool answers over.
func (t *TableQA) Dataset() *entities.Dataset {
	return t.dataset
}

// Run implements ports.Tool.
func (t *TableQA) Run(ctx context.Context, query string) (*entities.ToolResult, error) {
	if t.dataset == nil {
		return nil, fmt.Errorf("%w: no dataset loaded", entities.ErrResourceNotReady)
	}

	raw, err := t.engine.Query(ctx, t.dataset, query)
	if err != nil {
		return nil, fmt.Errorf("%w: table query: %w", entities.ErrModelInvocation, err)
	}

	result, err := ParseTablePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("table query on %s: %w", t.dataset.Name, err)
	}
	return result, nil
}
