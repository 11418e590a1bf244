package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	os.Exit(m.Run())
}

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingResponse mirrors the OpenAI-compatible embeddings response.
type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

func newTestEmbedder(t *testing.T, h http.HandlerFunc) *Embedder {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "gemini",
		Logger:   zap.NewNop(),
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestEmbedder_Embed(t *testing.T) {
	expected := []float32{0.1, 0.2, 0.3, 0.4}

	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		resp := embeddingResponse{Object: "list", Model: "test-model"}
		resp.Data = []embeddingItem{{Object: "embedding", Embedding: expected}}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10
		writeJSON(t, w, http.StatusOK, resp)
	})

	res, err := emb.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(res.Embedding) != len(expected) {
		t.Fatalf("len = %d, want %d", len(res.Embedding), len(expected))
	}
	for i, v := range expected {
		if res.Embedding[i] != v {
			t.Errorf("embedding[%d] = %f, want %f", i, res.Embedding[i], v)
		}
	}
	if res.TotalTokens != 10 {
		t.Errorf("TotalTokens = %d, want 10", res.TotalTokens)
	}
}

func TestEmbedder_BatchEmbed_ReordersByIndex(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Input) != 3 {
			t.Errorf("input len = %d, want 3", len(req.Input))
		}
		resp := embeddingResponse{Object: "list"}
		resp.Data = []embeddingItem{
			{Embedding: []float32{3}, Index: 2},
			{Embedding: []float32{1}, Index: 0},
			{Embedding: []float32{2}, Index: 1},
		}
		resp.Usage.PromptTokens = 6
		resp.Usage.TotalTokens = 6
		writeJSON(t, w, http.StatusOK, resp)
	})

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("BatchEmbed() error = %v", err)
	}
	for i, want := range []float32{1, 2, 3} {
		if res.Embeddings[i][0] != want {
			t.Errorf("embeddings[%d] = %v, want %v", i, res.Embeddings[i][0], want)
		}
	}
	if res.PromptTokens != 6 {
		t.Errorf("PromptTokens = %d, want 6", res.PromptTokens)
	}
}

func TestEmbedder_BatchEmbed_Empty(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty input")
	})

	res, err := emb.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("BatchEmbed() error = %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("Embeddings = %v, want nil", res.Embeddings)
	}
}

func TestEmbedder_BatchEmbed_MissingItem(t *testing.T) {
	emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingResponse{Object: "list"}
		resp.Data = []embeddingItem{{Embedding: []float32{1}, Index: 0}}
		writeJSON(t, w, http.StatusOK, resp)
	})

	_, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("error = %v, want ErrUpstream", err)
	}
}

func TestEmbedder_Dimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Dimensions != 2 {
			t.Errorf("dimensions = %d, want 2", req.Dimensions)
		}
		resp := embeddingResponse{Object: "list"}
		resp.Data = []embeddingItem{{Embedding: []float32{1, 0}}}
		writeJSON(t, w, http.StatusOK, resp)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Dimensions: 2})
	if _, err := emb.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	spec := emb.Spec()
	if spec.Provider != ProviderName || spec.Model != "m" || spec.Dimensions != 2 {
		t.Errorf("Spec() = %+v", spec)
	}
}

func TestEmbedder_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{
			name:   "429 status",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"slow down","type":"rate_limit"}}`,
			want:   domain.ErrRateLimited,
		},
		{
			name:   "gemini list body",
			status: http.StatusTooManyRequests,
			body:   `[{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}]`,
			want:   domain.ErrRateLimited,
		},
		{
			name:   "quota in message",
			status: http.StatusForbidden,
			body:   `{"error":{"message":"You exceeded your current QUOTA"}}`,
			want:   domain.ErrRateLimited,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":{"message":"internal"}}`,
			want:   domain.ErrUpstream,
		},
		{
			name:   "bad key",
			status: http.StatusUnauthorized,
			body:   `{"error":{"message":"API key not valid"}}`,
			want:   domain.ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := emb.Embed(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail":"model not found"}`, "model not found"},
		{`{"error":{"message":"boom"}}`, "boom"},
		{`{"error":{"message":"boom","status":"INTERNAL"}}`, "INTERNAL: boom"},
		{`[{"error":{"message":"quota","status":"RESOURCE_EXHAUSTED"}}]`, "RESOURCE_EXHAUSTED: quota"},
		{`not json`, ""},
	}
	for _, tt := range tests {
		if got := extractDetail([]byte(tt.body)); got != tt.want {
			t.Errorf("extractDetail(%s) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
