package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// Lines recorded when a routed answer has no text of its own.
const (
	NoDocumentAnswer = "(No answer)"
	TableOnlyAnswer  = "Generated visualization or table."
)

// Envelope is the display-ready form of one turn's result.
type Envelope struct {
	Capability entities.Capability `json:"capability"`
	Text       *string             `json:"text,omitempty"`
	Table      *entities.Table     `json:"table,omitempty"`
	Chart      *entities.Chart     `json:"chart,omitempty"`
}

func newEnvelope(c entities.Capability, r *entities.ToolResult) *Envelope {
	return &Envelope{Capability: c, Text: r.Text, Table: r.Table, Chart: r.Chart}
}

// Orchestrator runs one user turn: it records the user entry, routes the
// query, then records the assistant entry and returns the envelope.
type Orchestrator struct {
	router    *Router
	sessions  ports.SessionStore
	greetings map[entities.Capability]string
	memories  map[entities.Capability]*entities.Memory
	logger    *zap.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(l *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithGreeting seeds new sessions of a capability with an assistant line.
func WithGreeting(c entities.Capability, text string) OrchestratorOption {
	return func(o *Orchestrator) {
		if text != "" {
			o.greetings[c] = text
		}
	}
}

// WithMemory attaches the memory handle a capability's collaborator uses to
// newly created sessions of that capability.
func WithMemory(c entities.Capability, m *entities.Memory) OrchestratorOption {
	return func(o *Orchestrator) {
		o.memories[c] = m
	}
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(router *Router, sessions ports.SessionStore, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		router:    router,
		sessions:  sessions,
		greetings: make(map[entities.Capability]string),
		memories:  make(map[entities.Capability]*entities.Memory),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleTurn routes a query and records it in the session of the capability
// that handles it. When the tool fails the user entry stays recorded, no
// assistant entry is added and the error is returned unchanged.
func (o *Orchestrator) HandleTurn(ctx context.Context, sessionID, query string, availability entities.Availability) (*Envelope, error) {
	decision := o.router.Select(query, availability)
	session := o.session(sessionID, decision.Capability)
	session.Append(entities.RoleUser, query)

	routed, err := o.router.Dispatch(ctx, decision, query)
	if err != nil {
		o.logger.Warn("turn failed",
			zap.String("session_id", sessionID),
			zap.Stringer("capability", decision.Capability),
			zap.Error(err),
		)
		return nil, err
	}

	session.Append(entities.RoleAssistant, routedReply(routed))
	o.logger.Info("turn handled",
		zap.String("session_id", sessionID),
		zap.Stringer("capability", routed.Capability),
		zap.Int("pdf_score", decision.PDFScore),
		zap.Int("csv_score", decision.CSVScore),
	)
	return newEnvelope(routed.Capability, routed.Result), nil
}

// HandleDirect runs a query against one capability without routing.
func (o *Orchestrator) HandleDirect(ctx context.Context, sessionID string, c entities.Capability, query string) (*Envelope, error) {
	tool, ok := o.router.Tools().Lookup(c)
	if !ok {
		return nil, fmt.Errorf("%s capability: %w", c, entities.ErrMissingCredential)
	}

	session := o.session(sessionID, c)
	session.Append(entities.RoleUser, query)

	result, err := runTool(ctx, tool, c, query)
	if err != nil {
		o.logger.Warn("direct turn failed",
			zap.String("session_id", sessionID),
			zap.Stringer("capability", c),
			zap.Error(err),
		)
		return nil, err
	}

	session.Append(entities.RoleAssistant, directReply(c, result))
	return newEnvelope(c, result), nil
}

// RecordFailure appends an error notice for a failed turn. Callers use it
// at the turn boundary; the orchestrator never adds one on its own.
func (o *Orchestrator) RecordFailure(sessionID string, c entities.Capability, err error) {
	if err == nil {
		return
	}
	o.session(sessionID, c).AppendError(err.Error())
}

// History returns the entries of one capability session, or nil if the
// session was never created.
func (o *Orchestrator) History(sessionID string, c entities.Capability) []entities.Entry {
	session, ok := o.sessions.Lookup(sessionID, c)
	if !ok {
		return nil
	}
	return session.Entries()
}

func (o *Orchestrator) session(sessionID string, c entities.Capability) *entities.ConversationSession {
	session, created := o.sessions.Session(sessionID, c)
	if created {
		session.Memory = o.memories[c]
		if greeting, ok := o.greetings[c]; ok {
			session.Append(entities.RoleAssistant, greeting)
		}
		o.logger.Debug("session created", zap.String("session_id", sessionID), zap.Stringer("capability", c))
	}
	return session
}

func routedReply(r *RouteResult) string {
	if r.Decision.Sentinel {
		return r.Result.TextOrEmpty()
	}
	return r.Capability.Badge() + "\n\n" + directReply(r.Capability, r.Result)
}

func directReply(c entities.Capability, result *entities.ToolResult) string {
	if text := result.TextOrEmpty(); text != "" {
		return text
	}
	switch c {
	case entities.CapabilityTableQA:
		return TableOnlyAnswer
	case entities.CapabilityDocumentQA:
		return NoDocumentAnswer
	default:
		return ""
	}
}
