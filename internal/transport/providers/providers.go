// Package providers builds the embedding and chat model clients from
// configuration. Keys are resolved on every call so that a credential added
// after startup takes effect on the next initialization attempt.
package providers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/config"
	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/transport/hashing"
	"github.com/resumeqa/resumeqa/internal/transport/openai"
	"github.com/resumeqa/resumeqa/internal/usecase/embedding"
	"github.com/resumeqa/resumeqa/internal/usecase/generation"
	"github.com/resumeqa/resumeqa/internal/usecase/retrieval"
)

// Resolver implements answer.Providers.
type Resolver struct {
	embedding config.EmbeddingConfig
	llm       config.LLMConfig
	logger    *zap.Logger
}

// New creates a Resolver.
func New(emb config.EmbeddingConfig, llm config.LLMConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{embedding: emb, llm: llm, logger: logger}
}

// Embedder returns the configured embedding provider wrapped with batching,
// instructions and logging.
func (r *Resolver) Embedder(_ context.Context) (retrieval.Embedder, error) {
	base, err := r.baseEmbedder()
	if err != nil {
		return nil, err
	}
	return embedding.NewInstrumentedEmbedder(base, embedding.Options{
		BatchSize:           r.embedding.BatchSize,
		DocumentInstruction: r.embedding.DocumentInstruction,
		QueryInstruction:    r.embedding.QueryInstruction,
	}, r.logger), nil
}

func (r *Resolver) baseEmbedder() (embedding.Provider, error) {
	switch r.embedding.Provider {
	case config.ProviderHashing:
		return hashing.New(r.embedding.Dimensions), nil
	case config.ProviderOpenAI, "":
		key := config.ResolveKey(r.embedding.APIKey, r.embedding.APIKeyEnvs)
		if key == "" {
			return nil, missingKey("embedding", r.embedding.APIKeyEnvs)
		}
		baseURL := r.embedding.BaseURL
		if baseURL == "" {
			baseURL = openai.DefaultEmbeddingURL
		}
		model := r.embedding.Model
		if model == "" {
			model = openai.DefaultEmbeddingModel
		}
		return openai.NewEmbedder(&openai.Config{
			APIKey:     key,
			BaseURL:    baseURL,
			Model:      model,
			Dimensions: r.embedding.Dimensions,
			Logger:     r.logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrNotConfigured, r.embedding.Provider)
	}
}

// ChatModel returns the rate-limited chat model.
func (r *Resolver) ChatModel(_ context.Context) (domain.ChatModel, error) {
	key := config.ResolveKey(r.llm.APIKey, r.llm.APIKeyEnvs)
	if key == "" {
		return nil, missingKey("llm", r.llm.APIKeyEnvs)
	}

	cm := openai.NewChatModel(&openai.ChatConfig{
		APIKey:      key,
		BaseURL:     r.llm.BaseURL,
		Model:       r.llm.Model,
		Temperature: r.llm.Temperature,
		MaxTokens:   r.llm.MaxTokens,
		Logger:      r.logger,
	})
	model := r.llm.Model
	if model == "" {
		model = openai.DefaultChatModel
	}
	return generation.NewLimitedModel(cm, generation.Options{
		RequestsPerMinute: r.llm.RequestsPerMinute,
		Burst:             r.llm.Burst,
		Model:             model,
	}, r.logger), nil
}

// HealthCheck probes the embedding provider. A missing key reports as an error.
func (r *Resolver) HealthCheck(ctx context.Context) error {
	base, err := r.baseEmbedder()
	if err != nil {
		return err
	}
	if hc, ok := base.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

func missingKey(section string, envs []string) error {
	if len(envs) == 0 {
		return fmt.Errorf("%w: missing %s API key (set %s.api_key)", domain.ErrNotConfigured, section, section)
	}
	return fmt.Errorf("%w: missing %s API key (set %s.api_key or %s)",
		domain.ErrNotConfigured, section, section, strings.Join(envs, " or "))
}
