package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// OpenAIConfig configures an OpenAI-compatible chat adapter.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
}

// OpenAIAdapter implements ports.LLMService against an OpenAI-compatible
// chat completions endpoint.
type OpenAIAdapter struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewOpenAIAdapter creates an OpenAI chat adapter. The SDK's own retries are
// disabled; failed calls surface to the caller as is.
func NewOpenAIAdapter(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai adapter: %w", entities.ErrMissingCredential)
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIAdapter{
		client:      openai.NewClient(ClientOptions(cfg.APIKey, cfg.BaseURL)...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// ClientOptions builds the SDK options shared by the chat and embedding
// adapters.
func ClientOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return opts
}

// Model returns the configured model name.
func (a *OpenAIAdapter) Model() string {
	return a.model
}

// Generate sends the prompt as a single user message.
func (a *OpenAIAdapter) Generate(ctx context.Context, prompt string, contextDocs []string) (string, error) {
	return a.Chat(ctx, []entities.ChatMessage{{Role: entities.RoleUser, Content: prompt}})
}

// Chat produces the next assistant message for a conversation.
func (a *OpenAIAdapter) Chat(ctx context.Context, messages []entities.ChatMessage) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(a.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(a.temperature),
	}

	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			a.logger.Error("openai chat completion rejected",
				zap.String("model", a.model),
				zap.Int("status", apiErr.StatusCode),
			)
		}
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}

	a.logger.Debug("openai chat completion done",
		zap.String("model", a.model),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []entities.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entities.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case entities.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
