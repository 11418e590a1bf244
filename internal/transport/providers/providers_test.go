package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/config"
	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/transport/hashing"
)

const testKeyEnv = "RESUMEQA_PROVIDERS_TEST_KEY"

func TestEmbedder_Hashing(t *testing.T) {
	r := New(config.EmbeddingConfig{Provider: config.ProviderHashing, Dimensions: 64}, config.LLMConfig{}, zap.NewNop())

	emb, err := r.Embedder(context.Background())
	if err != nil {
		t.Fatalf("Embedder() error = %v", err)
	}
	spec := emb.Spec()
	if spec.Provider != hashing.ProviderName || spec.Dimensions != 64 {
		t.Errorf("Spec() = %+v", spec)
	}

	res, err := emb.Embed(context.Background(), "Go engineer")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(res.Embedding) != 64 {
		t.Errorf("dims = %d, want 64", len(res.Embedding))
	}
	if err := r.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestEmbedder_InstructionChangesSpec(t *testing.T) {
	plain := New(config.EmbeddingConfig{Provider: config.ProviderHashing}, config.LLMConfig{}, nil)
	instructed := New(config.EmbeddingConfig{
		Provider:         config.ProviderHashing,
		QueryInstruction: "query: ",
	}, config.LLMConfig{}, nil)

	a, _ := plain.Embedder(context.Background())
	b, _ := instructed.Embedder(context.Background())
	if a.Spec().Model == b.Spec().Model {
		t.Errorf("instruction must change the model identity, both %q", a.Spec().Model)
	}
}

func TestEmbedder_OpenAIMissingKey(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	r := New(config.EmbeddingConfig{
		Provider:   config.ProviderOpenAI,
		APIKeyEnvs: []string{testKeyEnv},
	}, config.LLMConfig{}, nil)

	_, err := r.Embedder(context.Background())
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}
	if !strings.Contains(err.Error(), testKeyEnv) {
		t.Errorf("error %q should name %s", err, testKeyEnv)
	}
}

func TestEmbedder_OpenAIKeyFromEnv(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.6,0.8]}]}`))
	}))
	defer server.Close()

	t.Setenv(testKeyEnv, "env-key")
	r := New(config.EmbeddingConfig{
		Provider:   config.ProviderOpenAI,
		APIKeyEnvs: []string{testKeyEnv},
		BaseURL:    server.URL,
		Model:      "text-embedding-004",
	}, config.LLMConfig{}, nil)

	emb, err := r.Embedder(context.Background())
	if err != nil {
		t.Fatalf("Embedder() error = %v", err)
	}
	if _, err := emb.Embed(context.Background(), "hello"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if auth != "Bearer env-key" {
		t.Errorf("Authorization = %q, want Bearer env-key", auth)
	}
}

func TestChatModel_KeyResolvedPerCall(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	r := New(config.EmbeddingConfig{}, config.LLMConfig{APIKeyEnvs: []string{testKeyEnv}}, nil)

	if _, err := r.ChatModel(context.Background()); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("error = %v, want ErrNotConfigured", err)
	}

	t.Setenv(testKeyEnv, "late-key")
	cm, err := r.ChatModel(context.Background())
	if err != nil {
		t.Fatalf("ChatModel() after setting key error = %v", err)
	}
	if cm == nil {
		t.Fatal("ChatModel() returned nil")
	}
}

func TestChatModel_ExplicitKeyWins(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	r := New(config.EmbeddingConfig{}, config.LLMConfig{APIKey: "explicit", APIKeyEnvs: []string{testKeyEnv}}, nil)

	if _, err := r.ChatModel(context.Background()); err != nil {
		t.Fatalf("ChatModel() error = %v", err)
	}
}
