package resumeqa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/config"
	"github.com/resumeqa/resumeqa/internal/db"
	dbFile "github.com/resumeqa/resumeqa/internal/db/file"
	dbRedis "github.com/resumeqa/resumeqa/internal/db/redis"
	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/resume"
	indexrepo "github.com/resumeqa/resumeqa/internal/repository/index"
	"github.com/resumeqa/resumeqa/internal/transport/hashing"
	"github.com/resumeqa/resumeqa/internal/transport/openai"
	answeruc "github.com/resumeqa/resumeqa/internal/usecase/answer"
	healthuc "github.com/resumeqa/resumeqa/internal/usecase/health"
	"github.com/resumeqa/resumeqa/internal/usecase/prompt"
	"github.com/resumeqa/resumeqa/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultIndexName        = "resume"
)

// answerUseCase is the internal interface for the pipeline, swappable in tests.
type answerUseCase interface {
	Answer(ctx context.Context, question string) (string, error)
	Warmup(ctx context.Context) error
	Ready() bool
}

// Client is the resumeqa SDK entry point. Safe for concurrent use.
type Client struct {
	store     db.BlobStore
	answerSvc answerUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client. Nothing is read or embedded until the first Ask or
// Warmup. The provided context is used for the index store readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{indexName: defaultIndexName}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.resumePath == "" && cfg.resumeJSON == nil {
		return nil, errors.New("resumeqa: resume required (use WithResumeFile or WithRecords)")
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.BlobStore, error) {
	switch {
	case cfg.redisAddr != "":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
			Prefix:   "resumeqa:",
		})
		if err != nil {
			return nil, fmt.Errorf("resumeqa: create redis store: %w", err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, fmt.Errorf("resumeqa: redis not ready: %w", err)
		}
		return s, nil
	case cfg.indexDir != "":
		s, err := dbFile.NewStore(cfg.indexDir)
		if err != nil {
			return nil, fmt.Errorf("resumeqa: create index dir: %w", err)
		}
		return s, nil
	default:
		return newMemStore(), nil
	}
}

func wireClient(store db.BlobStore, cfg *clientConfig, obs *observer) *Client {
	var src answeruc.Source = resume.FileSource{ResumePath: cfg.resumePath, FAQPath: cfg.faqPath}
	if cfg.resumeJSON != nil {
		src = bytesSource{resume: cfg.resumeJSON, faq: cfg.faqJSON}
	}

	providers := &sdkProviders{cfg: cfg}
	answerSvc := answeruc.New(
		src,
		providers,
		retrieval.NewBuilder(indexrepo.New(store), cfg.indexName, zap.NewNop()),
		prompt.New(cfg.owner),
		cfg.topK,
		zap.NewNop(),
	)

	return &Client{
		store:     store,
		answerSvc: answerSvc,
		healthSvc: healthuc.New(store, nil, answerSvc),
		obs:       obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ask answers a question about the resume owner. The returned error wraps
// one of ErrInvalidInput, ErrNotConfigured, ErrRateLimited or ErrUpstream.
func (c *Client) Ask(ctx context.Context, question string) (answer string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	return c.answerSvc.Answer(ctx, question)
}

// Warmup initializes the pipeline eagerly. It is safe to call Ask without it.
func (c *Client) Warmup(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("warmup", start, err) }()

	return c.answerSvc.Warmup(ctx)
}

// Ready reports whether the pipeline has been initialized.
func (c *Client) Ready() bool {
	return c.answerSvc.Ready()
}

// sdkProviders resolves the embedder and chat model from client options.
type sdkProviders struct {
	cfg *clientConfig
}

func (p *sdkProviders) Embedder(_ context.Context) (retrieval.Embedder, error) {
	if p.cfg.embedder == nil {
		return hashing.New(p.cfg.hashingDims), nil
	}
	return &embedderAdapter{
		inner: p.cfg.embedder,
		spec:  domain.EmbeddingSpec{Provider: ProviderCustom, Model: p.cfg.embedderModel},
	}, nil
}

func (p *sdkProviders) ChatModel(_ context.Context) (domain.ChatModel, error) {
	if p.cfg.chatModel != nil {
		return p.cfg.chatModel, nil
	}
	key := config.ResolveKey(p.cfg.apiKey, config.DefaultAPIKeyEnvs)
	if key == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key (use WithGemini or set GOOGLE_API_KEY or GEMINI_API_KEY)",
			domain.ErrNotConfigured)
	}
	return openai.NewChatModel(&openai.ChatConfig{APIKey: key, Model: p.cfg.llmModel}), nil
}

// bytesSource serves records supplied with WithRecords.
type bytesSource struct {
	resume []byte
	faq    []byte
}

func (s bytesSource) Load(_ context.Context) (resume.Record, resume.FAQ, error) {
	rec, err := resume.Parse(s.resume)
	if err != nil {
		return resume.Record{}, resume.FAQ{}, fmt.Errorf("%w: parse resume: %w", domain.ErrNotConfigured, err)
	}
	if len(s.faq) == 0 {
		return rec, resume.FAQ{}, nil
	}
	faq, err := resume.ParseFAQ(s.faq)
	if err != nil {
		return resume.Record{}, resume.FAQ{}, fmt.Errorf("%w: parse faq: %w", domain.ErrNotConfigured, err)
	}
	return rec, faq, nil
}
