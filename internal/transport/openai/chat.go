package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/domain"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
)

// ChatModel is a language model backed by the chat completions API.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// ChatConfig holds the completion provider settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	Provider    string
	Logger      *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat model.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{
		client:      newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      logger,
	}
}

// Complete implements domain.LanguageModel. Every failure is a *domain.GenerationError.
func (m *ChatModel) Complete(ctx context.Context, prompt domain.Prompt) (domain.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.User,
	})

	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    messages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	}

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		f := classify(ctx, err)
		m.fail(f.kind)
		return domain.Completion{}, &domain.GenerationError{
			Provider:   m.provider,
			StatusCode: f.status,
			Detail:     f.detail,
			Err:        f.cause,
		}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		m.fail("empty_response")
		return domain.Completion{}, &domain.GenerationError{
			Provider: m.provider,
			Detail:   "empty completion",
		}
	}

	metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, "success").Inc()
	metrics.LLMRequestDuration.WithLabelValues(m.provider, m.model).Observe(duration.Seconds())
	metrics.LLMTokensTotal.WithLabelValues(m.provider, m.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensTotal.WithLabelValues(m.provider, m.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	if fr := resp.Choices[0].FinishReason; fr == openai.FinishReasonLength {
		m.logger.Warn("Completion truncated by max_tokens",
			zap.String("model", m.model),
			zap.Int("max_tokens", m.maxTokens),
		)
	}

	model := resp.Model
	if model == "" {
		model = m.model
	}

	return domain.Completion{
		Text:             resp.Choices[0].Message.Content,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	if _, err := m.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (m *ChatModel) fail(kind string) {
	metrics.LLMRequestsTotal.WithLabelValues(m.provider, m.model, "error").Inc()
	metrics.LLMErrorsTotal.WithLabelValues(m.provider, m.model, kind).Inc()
}
