package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// DefaultChatPrompt is the system message of the chat capability.
const DefaultChatPrompt = "You are a helpful assistant. Answer the user's questions clearly and concisely."

// ChatTool is free-form conversation backed by a language model. It keeps
// the exchange in its memory and sends the whole buffer with each prompt.
type ChatTool struct {
	llm          ports.LLMService
	memory       *entities.Memory
	systemPrompt string
}

// NewChatTool creates a chat capability. A nil memory gets a fresh buffer.
func NewChatTool(llm ports.LLMService, memory *entities.Memory, systemPrompt string) *ChatTool {
	if memory == nil {
		memory = entities.NewMemory()
	}
	if systemPrompt == "" {
		systemPrompt = DefaultChatPrompt
	}
	return &ChatTool{llm: llm, memory: memory, systemPrompt: systemPrompt}
}

// Capability implements ports.Tool.
func (t *ChatTool) Capability() entities.Capability {
	return entities.CapabilityChat
}

// Memory returns the conversation buffer.
func (t *ChatTool) Memory() *entities.Memory {
	return t.memory
}

// Run implements ports.Tool.
func (t *ChatTool) Run(ctx context.Context, query string) (*entities.ToolResult, error) {
	messages := make([]entities.ChatMessage, 0, t.memory.Len()+2)
	messages = append(messages, entities.ChatMessage{Role: entities.RoleSystem, Content: t.systemPrompt})
	messages = append(messages, t.memory.Messages()...)
	messages = append(messages, entities.ChatMessage{Role: entities.RoleUser, Content: query})

	reply, err := t.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("%w: chat: %w", entities.ErrModelInvocation, err)
	}

	t.memory.Append(entities.RoleUser, query)
	t.memory.Append(entities.RoleAssistant, reply)
	return entities.TextAnswer(reply), nil
}
