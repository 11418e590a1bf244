package embedding

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
)

// DefaultMaxAPIBatchSize is the largest number of texts sent in one provider call.
const DefaultMaxAPIBatchSize = 100

// Provider is an embedder that can name its vector space.
type Provider interface {
	domain.Embedder
	Spec() domain.EmbeddingSpec
}

// Options tunes the decorator.
type Options struct {
	// BatchSize caps texts per provider call; 0 means DefaultMaxAPIBatchSize.
	BatchSize int
	// DocumentInstruction is prepended to every indexed chunk.
	DocumentInstruction string
	// QueryInstruction is prepended to every question.
	QueryInstruction string
}

// InstrumentedEmbedder splits work into query and document paths with their
// own instructions, batches document calls and logs every request. Transport
// metrics are recorded by the providers themselves.
type InstrumentedEmbedder struct {
	inner     Provider
	query     *domain.InstructionEmbedder
	docs      *domain.InstructionEmbedder
	spec      domain.EmbeddingSpec
	batchSize int
	logger    *zap.Logger
}

// NewInstrumentedEmbedder wraps a provider.
func NewInstrumentedEmbedder(inner Provider, opts Options, logger *zap.Logger) *InstrumentedEmbedder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultMaxAPIBatchSize
	}
	return &InstrumentedEmbedder{
		inner:     inner,
		query:     domain.NewInstructionEmbedder(inner, opts.QueryInstruction),
		docs:      domain.NewInstructionEmbedder(inner, opts.DocumentInstruction),
		spec:      variantSpec(inner.Spec(), opts.DocumentInstruction, opts.QueryInstruction),
		batchSize: opts.BatchSize,
		logger:    logger,
	}
}

// Spec names the vector space. Instructions change the vectors a model
// returns, so they take part in the model name.
func (p *InstrumentedEmbedder) Spec() domain.EmbeddingSpec {
	return p.spec
}

// Embed vectorizes a question.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.query.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Query embedding failed",
			zap.String("provider", p.spec.Provider),
			zap.String("model", p.spec.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed query: %w", err)
	}

	p.logger.Debug("Query embedding completed",
		zap.String("provider", p.spec.Provider),
		zap.String("model", p.spec.Model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// BatchEmbed vectorizes chunk texts in provider-sized batches, preserving order.
func (p *InstrumentedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, 0, len(texts))}

	for offset := 0; offset < len(texts); offset += p.batchSize {
		end := min(offset+p.batchSize, len(texts))
		res, err := p.docs.BatchEmbed(ctx, texts[offset:end])
		if err != nil {
			p.logger.Error("Batch embedding request failed",
				zap.String("provider", p.spec.Provider),
				zap.String("model", p.spec.Model),
				zap.Int("batch_offset", offset),
				zap.Int("batch_size", end-offset),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed [%d:%d]: %w", offset, end, err)
		}
		if len(res.Embeddings) != end-offset {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: batch [%d:%d] returned %d embeddings",
				domain.ErrUpstream, offset, end, len(res.Embeddings))
		}
		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	p.logger.Info("Batch embedding completed",
		zap.String("provider", p.spec.Provider),
		zap.String("model", p.spec.Model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("texts", len(texts)),
		zap.Int("total_tokens", out.TotalTokens),
	)
	return out, nil
}

// HealthCheck delegates when the provider supports it.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent delegation
	}
	return nil
}

func variantSpec(spec domain.EmbeddingSpec, docInstr, queryInstr string) domain.EmbeddingSpec {
	if docInstr == "" && queryInstr == "" {
		return spec
	}
	h := xxhash.Sum64String(docInstr + "\x00" + queryInstr)
	spec.Model += "+i" + strconv.FormatUint(h&0xffffffff, 16)
	return spec
}
