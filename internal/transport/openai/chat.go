package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/metrics"
)

// Gemini defaults; Gemini exposes an OpenAI-compatible chat endpoint.
const (
	DefaultChatBaseURL    = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultChatModel      = "gemini-2.5-flash"
	DefaultTemperature    = float32(0.2)
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultEmbeddingURL   = DefaultChatBaseURL
)

// Compile-time check: ChatModel implements domain.ChatModel.
var _ domain.ChatModel = (*ChatModel)(nil)

// ChatConfig holds the chat completion settings.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// ChatModel generates answers through the chat completions API.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewChatModel creates a chat model client. Empty fields take Gemini defaults.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultChatBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	m := &ChatModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
	if m.model == "" {
		m.model = DefaultChatModel
	}
	if m.temperature == 0 {
		m.temperature = DefaultTemperature
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Generate sends the conversation and returns the first choice. Per-call
// options override the configured model, temperature and token limit.
func (c *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	temperature := c.temperature
	maxTokens := c.maxTokens
	modelName := c.model
	o := model.GetCommonOptions(&model.Options{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		Model:       &modelName,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:       *o.Model,
		Messages:    toOpenAIMessages(input),
		Temperature: *o.Temperature,
	}
	if *o.MaxTokens > 0 {
		req.MaxTokens = *o.MaxTokens
	}
	if len(o.Stop) > 0 {
		req.Stop = o.Stop
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		err = classifyError("chat completion", err)
		metrics.GenerationRequestsTotal.WithLabelValues(req.Model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(req.Model, domain.KindOf(err).String()).Inc()
		return nil, err
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(req.Model, "error").Inc()
		metrics.GenerationErrorsTotal.WithLabelValues(req.Model, "malformed_response").Inc()
		return nil, fmt.Errorf("chat completion: %w: response has no choices", domain.ErrUpstream)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(req.Model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(req.Model).Observe(duration.Seconds())

	choice := resp.Choices[0]
	c.logger.Debug("Chat completion finished",
		zap.String("model", req.Model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(choice.FinishReason)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

func toOpenAIMessages(in []*schema.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		if m == nil {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{Role: toOpenAIRole(m.Role), Content: m.Content})
	}
	return out
}

func toOpenAIRole(r schema.RoleType) string {
	switch r {
	case schema.System:
		return openai.ChatMessageRoleSystem
	case schema.Assistant:
		return openai.ChatMessageRoleAssistant
	case schema.Tool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}
