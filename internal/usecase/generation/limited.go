package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/metrics"
)

// Compile-time check: LimitedModel implements domain.ChatModel.
var _ domain.ChatModel = (*LimitedModel)(nil)

// Options tunes the decorator.
type Options struct {
	// RequestsPerMinute caps outgoing calls; 0 disables the limiter.
	RequestsPerMinute int
	// Burst is the number of calls allowed at once; 0 means 1.
	Burst int
	// Model labels logs.
	Model string
}

// LimitedModel throttles calls to a chat model on the client side and logs
// every request. Waiting for a token respects the caller's deadline: if the
// deadline would pass first, the call fails as rate limited without reaching
// the provider.
type LimitedModel struct {
	inner   domain.ChatModel
	limiter *rate.Limiter
	model   string
	logger  *zap.Logger
}

// NewLimitedModel wraps a chat model.
func NewLimitedModel(inner domain.ChatModel, opts Options, logger *zap.Logger) *LimitedModel {
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LimitedModel{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		model:   opts.Model,
		logger:  logger,
	}
}

// Generate waits for a limiter token and delegates.
func (m *LimitedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	waitStart := time.Now()
	if err := m.limiter.Wait(ctx); err != nil {
		m.logger.Warn("Generation throttled",
			zap.String("model", m.model),
			zap.Duration("waited", time.Since(waitStart)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("generate: %w: client-side limit: %w", domain.ErrRateLimited, err)
	}
	waited := time.Since(waitStart)
	metrics.GenerationRateLimitWait.Observe(waited.Seconds())

	start := time.Now()
	msg, err := m.inner.Generate(ctx, input, opts...)
	duration := time.Since(start)

	if err != nil {
		m.logger.Error("Generation failed",
			zap.String("model", m.model),
			zap.Duration("duration", duration),
			zap.String("kind", domain.KindOf(err).String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("generate: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("generate: %w: empty response", domain.ErrUpstream)
	}

	m.logger.Debug("Generation completed",
		zap.String("model", m.model),
		zap.Int("messages", len(input)),
		zap.Duration("waited", waited),
		zap.Duration("duration", duration),
	)
	return msg, nil
}
