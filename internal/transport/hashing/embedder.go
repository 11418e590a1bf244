// Package hashing provides an offline embedder based on feature hashing.
// Vectors capture word overlap only, which is enough for local runs, demos
// and tests without a provider credential.
package hashing

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/resumeqa/resumeqa/internal/domain"
)

// ProviderName identifies this embedder in index identities.
const ProviderName = "hashing"

// DefaultDimensions is used when New is given a non-positive size.
const DefaultDimensions = 256

const model = "xxh64-unigram"

// Embedder maps lowercased word tokens into a fixed number of signed buckets
// and L2-normalizes the result.
type Embedder struct {
	dims int
}

// New creates a hashing embedder with dims buckets.
func New(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed vectorizes one text. Token counts stand in for usage.
func (e *Embedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	vec, tokens := e.vector(text)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed vectorizes texts in order.
func (e *Embedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		vec, tokens := e.vector(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
		out.TotalTokens += tokens
	}
	return out, nil
}

// Spec identifies the vector space.
func (e *Embedder) Spec() domain.EmbeddingSpec {
	return domain.EmbeddingSpec{Provider: ProviderName, Model: model, Dimensions: e.dims}
}

// HealthCheck always succeeds.
func (e *Embedder) HealthCheck(_ context.Context) error {
	return nil
}

func (e *Embedder) vector(text string) ([]float32, int) {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	acc := make([]float64, e.dims)
	for _, tok := range tokens {
		h := xxhash.Sum64String(tok)
		sign := 1.0
		if h>>63 == 1 {
			sign = -1
		}
		acc[h%uint64(e.dims)] += sign
	}

	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	vec := make([]float32, e.dims)
	if sum == 0 {
		return vec, len(tokens)
	}
	n := math.Sqrt(sum)
	for i, v := range acc {
		vec[i] = float32(v / n)
	}
	return vec, len(tokens)
}
