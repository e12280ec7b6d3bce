package entities

import (
	"sync"
	"time"
)

// Entry is one line of a conversation session.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Error     bool      `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Memory is the conversational memory handed to a collaborator. The
// session carries it but never reads or rewrites it.
type Memory struct {
	messages []ChatMessage
}

// NewMemory creates an empty conversation buffer.
func NewMemory() *Memory {
	return &Memory{}
}

// Append records a message.
func (m *Memory) Append(role Role, content string) {
	m.messages = append(m.messages, ChatMessage{Role: role, Content: content})
}

// Messages returns a copy of the buffered messages, oldest first.
func (m *Memory) Messages() []ChatMessage {
	if m == nil {
		return nil
	}
	out := make([]ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Len returns the number of buffered messages.
func (m *Memory) Len() int {
	if m == nil {
		return 0
	}
	return len(m.messages)
}

// ConversationSession is the append-only history of one capability for one
// user session. Entries are never rewritten, reordered or trimmed. It is
// safe for concurrent use.
type ConversationSession struct {
	ID         string
	Capability Capability
	Memory     *Memory
	CreatedAt  time.Time

	mu      sync.RWMutex
	entries []Entry
}

// NewConversationSession creates an empty session.
func NewConversationSession(id string, capability Capability) *ConversationSession {
	return &ConversationSession{
		ID:         id,
		Capability: capability,
		CreatedAt:  time.Now(),
	}
}

// Append adds an entry and returns it.
func (s *ConversationSession) Append(role Role, content string) Entry {
	return s.append(Entry{Role: role, Content: content, CreatedAt: time.Now()})
}

// AppendError adds an assistant entry flagged as an error notice.
func (s *ConversationSession) AppendError(content string) Entry {
	return s.append(Entry{Role: RoleAssistant, Content: content, Error: true, CreatedAt: time.Now()})
}

func (s *ConversationSession) append(e Entry) Entry {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return e
}

// Entries returns a copy of the entries, oldest first.
func (s *ConversationSession) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *ConversationSession) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
