package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage drivers for the index snapshot.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
	StorageMinio = "minio"
)

// Embedding providers.
const (
	ProviderOpenAI  = "openai"
	ProviderHashing = "hashing"
)

// Config holds the resumeqa server configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Data      DataConfig      `yaml:"data"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	AskTimeoutSec   int `yaml:"ask_timeout_sec"`
}

// DataConfig locates the input records and the static frontend.
type DataConfig struct {
	Owner      string `yaml:"owner"`
	ResumePath string `yaml:"resume_path"`
	FAQPath    string `yaml:"faq_path"`
	AbbrevPath string `yaml:"abbrev_path"`
	StaticDir  string `yaml:"static_dir"`
	ImagesDir  string `yaml:"images_dir"`
}

// StorageConfig selects where index snapshots live.
type StorageConfig struct {
	Driver string      `yaml:"driver"` // file, redis, minio (default: file)
	Name   string      `yaml:"index_name"`
	File   FileConfig  `yaml:"file"`
	Redis  RedisConfig `yaml:"redis"`
	Minio  MinioConfig `yaml:"minio"`
}

// FileConfig holds local snapshot directory settings.
type FileConfig struct {
	Dir string `yaml:"dir"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MinioConfig holds S3-compatible object storage settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string   `yaml:"provider"` // openai, hashing (default: openai)
	APIKey              string   `yaml:"api_key"`
	APIKeyEnvs          []string `yaml:"api_key_envs"`
	BaseURL             string   `yaml:"base_url"`
	Model               string   `yaml:"model"`
	Dimensions          int      `yaml:"dimensions"`
	BatchSize           int      `yaml:"batch_size"`
	DocumentInstruction string   `yaml:"document_instruction"`
	QueryInstruction    string   `yaml:"query_instruction"`
}

// LLMConfig holds generative model settings.
type LLMConfig struct {
	APIKey            string   `yaml:"api_key"`
	APIKeyEnvs        []string `yaml:"api_key_envs"`
	BaseURL           string   `yaml:"base_url"`
	Model             string   `yaml:"model"`
	Temperature       float32  `yaml:"temperature"`
	MaxTokens         int      `yaml:"max_tokens"`
	RequestsPerMinute int      `yaml:"requests_per_minute"` // 0 = unlimited
	Burst             int      `yaml:"burst"`
}

// PipelineConfig tunes the question answering pipeline.
type PipelineConfig struct {
	TopK   int  `yaml:"top_k"`
	Warmup bool `yaml:"warmup"`
}

// DefaultAPIKeyEnvs are consulted in order when no key is configured.
var DefaultAPIKeyEnvs = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML after ${VAR} expansion, then applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.AskTimeoutSec <= 0 {
		c.HTTP.AskTimeoutSec = 60
	}

	if c.Data.ResumePath == "" {
		c.Data.ResumePath = "data/resume-full.json"
	}
	if c.Data.FAQPath == "" {
		c.Data.FAQPath = "data/rag-faq.json"
	}
	if c.Data.AbbrevPath == "" {
		c.Data.AbbrevPath = "data/resume-abbrev.json"
	}
	if c.Data.StaticDir == "" {
		c.Data.StaticDir = "static"
	}
	if c.Data.ImagesDir == "" {
		c.Data.ImagesDir = "images"
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageFile
	}
	if c.Storage.Name == "" {
		c.Storage.Name = "resume"
	}
	if c.Storage.File.Dir == "" {
		c.Storage.File.Dir = "data/index"
	}
	if c.Storage.Redis.KeyPrefix == "" {
		c.Storage.Redis.KeyPrefix = "resumeqa:"
	}
	if c.Storage.Redis.ReadinessTimeout <= 0 {
		c.Storage.Redis.ReadinessTimeout = 10
	}

	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if len(c.Embedding.APIKeyEnvs) == 0 {
		c.Embedding.APIKeyEnvs = DefaultAPIKeyEnvs
	}

	if len(c.LLM.APIKeyEnvs) == 0 {
		c.LLM.APIKeyEnvs = DefaultAPIKeyEnvs
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Storage.Driver {
	case StorageFile:
	case StorageRedis:
		if len(c.Storage.Redis.Addrs) == 0 {
			return fmt.Errorf("storage.redis.addrs is required")
		}
	case StorageMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("storage.minio.endpoint and storage.minio.bucket are required")
		}
	default:
		return fmt.Errorf("storage.driver must be \"file\", \"redis\" or \"minio\", got %q", c.Storage.Driver)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderHashing:
	default:
		return fmt.Errorf("embedding.provider must be \"openai\" or \"hashing\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature)
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must not be negative, got %d", c.LLM.RequestsPerMinute)
	}
	if c.Pipeline.TopK < 0 {
		return fmt.Errorf("pipeline.top_k must not be negative, got %d", c.Pipeline.TopK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// ResolveKey returns key when set, otherwise the first non-empty variable in envs.
func ResolveKey(key string, envs []string) string {
	if key = strings.TrimSpace(key); key != "" {
		return key
	}
	for _, name := range envs {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}
