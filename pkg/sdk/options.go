package resumeqa

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	resumePath string
	faqPath    string
	resumeJSON []byte
	faqJSON    []byte

	indexDir      string
	redisAddr     string
	redisPassword string
	indexName     string

	embedder      Embedder
	embedderModel string
	hashingDims   int

	chatModel ChatModel
	apiKey    string
	llmModel  string

	owner string
	topK  int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithResumeFile reads the detailed resume from path on first use.
func WithResumeFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.resumePath = path
	})
}

// WithFAQFile reads the optional FAQ from path on first use. A missing file
// means no FAQ.
func WithFAQFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.faqPath = path
	})
}

// WithRecords supplies the resume and FAQ documents directly. faq may be nil.
func WithRecords(resumeJSON, faqJSON []byte) Option {
	return optionFunc(func(c *clientConfig) {
		c.resumeJSON = resumeJSON
		c.faqJSON = faqJSON
	})
}

// WithIndexDir persists the vector index under dir. Without an index
// location the index lives in memory and is rebuilt per Client.
func WithIndexDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexDir = dir
	})
}

// WithRedis persists the vector index in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
	})
}

// WithIndexName sets the index name inside the index location. Default: "resume".
func WithIndexName(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.indexName = name
	})
}

// WithEmbedder sets the embedding provider. model names the vector space;
// changing it forces a rebuild of a persisted index.
func WithEmbedder(e Embedder, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.embedderModel = model
	})
}

// WithHashingEmbedder sets the dimensionality of the default offline
// embedder. Default: 256.
func WithHashingEmbedder(dims int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hashingDims = dims
	})
}

// WithChatModel sets the generative model.
func WithChatModel(m ChatModel) Option {
	return optionFunc(func(c *clientConfig) {
		c.chatModel = m
	})
}

// WithGemini sets the Gemini API key and model used when no chat model is
// given. An empty key falls back to GOOGLE_API_KEY, then GEMINI_API_KEY.
func WithGemini(apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = apiKey
		c.llmModel = model
	})
}

// WithOwner names the resume owner in the system prompt.
func WithOwner(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.owner = name
	})
}

// WithTopK sets how many chunks are retrieved per question. Default: 4.
func WithTopK(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topK = k
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
