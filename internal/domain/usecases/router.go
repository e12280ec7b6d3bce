package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// NoToolsMessage is returned when neither the selected capability nor chat
// can be served.
const NoToolsMessage = "No available tools. Please provide an API key or upload resources."

// Toolset holds the constructed capabilities. A nil field means the
// capability is absent, typically because no credential was supplied.
type Toolset struct {
	Chat     ports.Tool
	Document ports.Tool
	Table    ports.Tool
}

// Lookup returns the tool for a capability.
func (t Toolset) Lookup(c entities.Capability) (ports.Tool, bool) {
	var tool ports.Tool
	switch c {
	case entities.CapabilityChat:
		tool = t.Chat
	case entities.CapabilityDocumentQA:
		tool = t.Document
	case entities.CapabilityTableQA:
		tool = t.Table
	}
	return tool, tool != nil
}

// Decision is the outcome of capability selection for one query.
type Decision struct {
	// Capability is the capability that will handle the turn.
	Capability entities.Capability
	// Scored is the capability the gated scores picked, before fallback.
	Scored entities.Capability

	PDFScore int
	CSVScore int

	// FellBack is set when Scored had no tool and chat was used instead.
	FellBack bool
	// Sentinel is set when no tool at all can serve the turn.
	Sentinel bool
}

// RouteResult pairs the handling capability with its result.
type RouteResult struct {
	Capability entities.Capability
	Result     *entities.ToolResult
	Decision   Decision
}

// Router picks one capability per query and delegates to it.
type Router struct {
	tools       Toolset
	docKeywords entities.KeywordSet
	csvKeywords entities.KeywordSet
	logger      *zap.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets the logger used for routing decisions.
func WithRouterLogger(l *zap.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRouter creates a Router over the given tools.
func NewRouter(tools Toolset, opts ...RouterOption) *Router {
	r := &Router{
		tools:       tools,
		docKeywords: entities.DocumentKeywords(),
		csvKeywords: entities.TableKeywords(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tools returns the router's toolset.
func (r *Router) Tools() Toolset {
	return r.tools
}

// Select decides which capability handles the query. It has no side effects
// and depends only on its arguments and the router's toolset.
func (r *Router) Select(query string, availability entities.Availability) Decision {
	pdf := Score(query, r.docKeywords)
	csv := Score(query, r.csvKeywords)

	// Unready resources never win, whatever the keyword density.
	if !availability.DocumentReady() {
		pdf = 0
	}
	if !availability.DatasetReady() {
		csv = 0
	}

	d := Decision{PDFScore: pdf, CSVScore: csv}
	switch {
	case pdf == 0 && csv == 0:
		d.Scored = entities.CapabilityChat
	case pdf >= csv:
		d.Scored = entities.CapabilityDocumentQA
	default:
		d.Scored = entities.CapabilityTableQA
	}

	d.Capability = d.Scored
	if _, ok := r.tools.Lookup(d.Scored); !ok {
		d.Capability = entities.CapabilityChat
		d.FellBack = d.Scored != entities.CapabilityChat
		if _, ok := r.tools.Lookup(entities.CapabilityChat); !ok {
			d.Sentinel = true
		}
	}
	return d
}

// Dispatch runs the tool chosen by Select. Tool errors are returned as is;
// a result that fails validation is reported as entities.ErrOutputParse.
func (r *Router) Dispatch(ctx context.Context, d Decision, query string) (*RouteResult, error) {
	if d.Sentinel {
		r.logger.Warn("no tool available for turn", zap.Stringer("scored", d.Scored))
		return &RouteResult{Capability: d.Capability, Result: entities.TextAnswer(NoToolsMessage), Decision: d}, nil
	}

	tool, _ := r.tools.Lookup(d.Capability)
	r.logger.Debug("dispatching turn",
		zap.Stringer("capability", d.Capability),
		zap.Int("pdf_score", d.PDFScore),
		zap.Int("csv_score", d.CSVScore),
		zap.Bool("fell_back", d.FellBack),
	)

	result, err := runTool(ctx, tool, d.Capability, query)
	if err != nil {
		return nil, err
	}
	return &RouteResult{Capability: d.Capability, Result: result, Decision: d}, nil
}

// Route selects a capability and runs it.
func (r *Router) Route(ctx context.Context, query string, availability entities.Availability) (*RouteResult, error) {
	return r.Dispatch(ctx, r.Select(query, availability), query)
}

func runTool(ctx context.Context, tool ports.Tool, c entities.Capability, query string) (*entities.ToolResult, error) {
	result, err := tool.Run(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%s result: %w", c, err)
	}
	return result, nil
}
