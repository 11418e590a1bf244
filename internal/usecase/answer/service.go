package answer

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/index"
	"github.com/resumeqa/resumeqa/internal/logger"
	"github.com/resumeqa/resumeqa/internal/metrics"
	"github.com/resumeqa/resumeqa/internal/usecase/chunking"
	"github.com/resumeqa/resumeqa/internal/usecase/retrieval"
)

// pipeline is the wired, read-only state published after initialization.
type pipeline struct {
	retriever *retrieval.Retriever
	chat      domain.ChatModel
}

// Service answers questions about the resume owner.
//
// The pipeline is initialized on the first question, not at construction.
// Concurrent first calls share one initialization. A failed initialization
// publishes nothing, so the next call starts over.
type Service struct {
	source    Source
	providers Providers
	builder   IndexBuilder
	assembler Assembler
	topK      int
	logger    *zap.Logger

	state atomic.Pointer[pipeline]
	group singleflight.Group
}

// New creates a Service. topK <= 0 means retrieval.DefaultK.
func New(source Source, providers Providers, builder IndexBuilder, assembler Assembler, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = retrieval.DefaultK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:    source,
		providers: providers,
		builder:   builder,
		assembler: assembler,
		topK:      topK,
		logger:    logger,
	}
}

// Answer returns the model's answer verbatim. Every error wraps one of
// domain.ErrInvalidInput, ErrNotConfigured, ErrRateLimited or ErrUpstream.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		metrics.AnswersTotal.WithLabelValues(domain.KindInvalidInput.String()).Inc()
		return "", fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}

	answer, err := s.answer(ctx, q)
	if err != nil {
		err = domain.Classified(err)
		metrics.AnswersTotal.WithLabelValues(domain.KindOf(err).String()).Inc()
		return "", err
	}
	metrics.AnswersTotal.WithLabelValues("success").Inc()
	return answer, nil
}

func (s *Service) answer(ctx context.Context, question string) (string, error) {
	p, err := s.ready(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	chunks, err := p.retriever.Retrieve(ctx, question, s.topK)
	metrics.RetrievalDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}

	msgs, err := s.assembler.Assemble(ctx, chunks, question)
	if err != nil {
		return "", fmt.Errorf("assemble prompt: %w", err)
	}

	msg, err := p.chat.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty model response", domain.ErrUpstream)
	}

	logger.FromContext(ctx).Debug("question answered",
		zap.Int("chunks", len(chunks)),
		zap.Int("answer_len", len(msg.Content)),
	)
	return msg.Content, nil
}

// Ready reports whether the pipeline has been initialized.
func (s *Service) Ready() bool {
	return s.state.Load() != nil
}

// Manifest describes the published index. ok is false before initialization.
func (s *Service) Manifest() (m index.Manifest, ok bool) {
	p := s.state.Load()
	if p == nil {
		return index.Manifest{}, false
	}
	return p.retriever.Manifest(), true
}

// Warmup initializes the pipeline eagerly.
func (s *Service) Warmup(ctx context.Context) error {
	_, err := s.ready(ctx)
	return domain.Classified(err)
}

func (s *Service) ready(ctx context.Context) (*pipeline, error) {
	if p := s.state.Load(); p != nil {
		return p, nil
	}

	v, err, _ := s.group.Do("init", func() (any, error) {
		// A concurrent caller may have published while this one queued.
		if p := s.state.Load(); p != nil {
			return p, nil
		}
		p, err := s.initialize(ctx)
		if err != nil {
			metrics.PipelineInitTotal.WithLabelValues("error").Inc()
			s.logger.Warn("pipeline initialization failed",
				zap.String("kind", domain.KindOf(err).String()),
				zap.Error(err),
			)
			return nil, err
		}
		s.state.Store(p)
		metrics.PipelineInitTotal.WithLabelValues("success").Inc()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pipeline), nil
}

func (s *Service) initialize(ctx context.Context) (*pipeline, error) {
	start := time.Now()

	rec, faq, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	chunks := chunking.Chunk(rec, faq)
	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}

	chat, err := s.providers.ChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("chat model: %w", err)
	}
	emb, err := s.providers.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	r, err := s.builder.Build(ctx, chunks, emb)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}

	m := r.Manifest()
	s.logger.Info("pipeline ready",
		zap.Int("chunks", len(chunks)),
		zap.Int("faq_chunks", countFAQ(chunks)),
		zap.String("provider", m.Provider),
		zap.String("model", m.Model),
		zap.Int("dims", m.Dimensions),
		zap.Duration("duration", time.Since(start)),
	)
	return &pipeline{retriever: r, chat: chat}, nil
}

func countFAQ(chunks []chunk.Chunk) int {
	n := 0
	for _, c := range chunks {
		if c.Category() == chunk.FAQ {
			n++
		}
	}
	return n
}
