// Package llm provides the language-model adapters behind ports.LLMService.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// OllamaLLMAdapter implements ports.LLMService using the Ollama API.
type OllamaLLMAdapter struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewOllamaLLMAdapter creates a new Ollama LLM adapter.
func NewOllamaLLMAdapter(baseURL, model string, logger *zap.Logger) *OllamaLLMAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaLLMAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: logger,
	}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// Generate produces a response for a single prompt.
func (a *OllamaLLMAdapter) Generate(ctx context.Context, prompt string, contextDocs []string) (string, error) {
	var genResp ollamaGenerateResponse
	err := a.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:   a.model,
		Prompt:  prompt,
		Stream:  false,
		Options: map[string]any{"temperature": 0},
	}, &genResp)
	if err != nil {
		return "", err
	}
	a.logger.Debug("ollama generate done", zap.String("model", a.model), zap.Int("context_docs", len(contextDocs)))
	return genResp.Response, nil
}

// Chat produces the next assistant message for a conversation.
func (a *OllamaLLMAdapter) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	msgs := make([]ollamaChatMessage, len(messages))
	for i, m := range messages {
		msgs[i] = ollamaChatMessage{Role: string(m.Role), Content: m.Content}
	}

	var chatResp ollamaChatResponse
	if err := a.post(ctx, "/api/chat", ollamaChatRequest{
		Model:    a.model,
		Messages: msgs,
		Stream:   false,
	}, &chatResp); err != nil {
		return "", err
	}
	a.logger.Debug("ollama chat done", zap.String("model", a.model), zap.Int("messages", len(messages)))
	return chatResp.Message.Content, nil
}

func (a *OllamaLLMAdapter) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Error("ollama call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
