package retrieval

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/index"
)

// memRepo is an in-memory Repository keyed by identity key.
type memRepo struct {
	snapshots map[string]snapshot
	saves     int
	loadErr   error
}

type snapshot struct {
	m  index.Manifest
	ix *index.Index
}

func newMemRepo() *memRepo {
	return &memRepo{snapshots: map[string]snapshot{}}
}

func (r *memRepo) Load(_ context.Context, id index.Identity) (index.Manifest, *index.Index, error) {
	if r.loadErr != nil {
		return index.Manifest{}, nil, r.loadErr
	}
	s, ok := r.snapshots[id.Key()]
	if !ok {
		return index.Manifest{}, nil, index.ErrNotFound
	}
	if err := id.Check(s.m); err != nil {
		return s.m, nil, err
	}
	return s.m, s.ix, nil
}

func (r *memRepo) Save(_ context.Context, id index.Identity, m index.Manifest, ix *index.Index) error {
	r.saves++
	r.snapshots[id.Key()] = snapshot{m: m, ix: ix}
	return nil
}

// axisEmbedder maps each known keyword to its own axis.
type axisEmbedder struct {
	keywords   []string
	spec       domain.EmbeddingSpec
	batchCalls int
	embedCalls int
	embedErr   error
	override   [][]float32
}

func newAxisEmbedder(keywords ...string) *axisEmbedder {
	return &axisEmbedder{
		keywords: keywords,
		spec:     domain.EmbeddingSpec{Provider: "test", Model: "axis"},
	}
}

func (e *axisEmbedder) vec(text string) []float32 {
	v := make([]float32, len(e.keywords))
	lower := strings.ToLower(text)
	for i, kw := range e.keywords {
		if strings.Contains(lower, kw) {
			v[i] = 1
		}
	}
	return v
}

func (e *axisEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.embedCalls++
	if e.embedErr != nil {
		return domain.EmbeddingResult{}, e.embedErr
	}
	return domain.EmbeddingResult{Embedding: e.vec(text)}, nil
}

func (e *axisEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	e.batchCalls++
	if e.embedErr != nil {
		return domain.BatchEmbeddingResult{}, e.embedErr
	}
	if e.override != nil {
		return domain.BatchEmbeddingResult{Embeddings: e.override}, nil
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		out.Embeddings[i] = e.vec(t)
	}
	return out, nil
}

func (e *axisEmbedder) Spec() domain.EmbeddingSpec { return e.spec }

func testChunks(t *testing.T) []chunk.Chunk {
	t.Helper()
	texts := []struct {
		cat  chunk.Category
		text string
	}{
		{chunk.Profile, "Profile: Jane Doe. Email: jane@example.com."},
		{chunk.Experience, "Company: Acme. Role: Engineer. Tasks: Built Go services."},
		{chunk.Education, "Education: BSc at State University."},
		{chunk.FAQ, "Question: What is your favorite language?\nAnswer: Go."},
	}
	out := make([]chunk.Chunk, len(texts))
	for i, tc := range texts {
		c, err := chunk.New(tc.text, tc.cat)
		if err != nil {
			t.Fatalf("chunk.New: %v", err)
		}
		out[i] = c
	}
	return out
}

func newTestBuilder(repo Repository) *Builder {
	return NewBuilder(repo, "resume", zap.NewNop())
}
