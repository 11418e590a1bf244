package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/index"
)

func TestBuild_NoChunks(t *testing.T) {
	emb := newAxisEmbedder("go")
	_, err := newTestBuilder(newMemRepo()).Build(context.Background(), nil, emb)
	if !errors.Is(err, domain.ErrNoChunks) || !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNoChunks, got %v", err)
	}
	if emb.batchCalls != 0 {
		t.Error("no embedding calls expected")
	}
}

func TestBuild_BuildsAndPersists(t *testing.T) {
	repo := newMemRepo()
	emb := newAxisEmbedder("acme", "go", "university", "email")

	r, err := newTestBuilder(repo).Build(context.Background(), testChunks(t), emb)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if emb.batchCalls != 1 {
		t.Errorf("batchCalls = %d, want 1", emb.batchCalls)
	}
	if repo.saves != 1 {
		t.Errorf("saves = %d, want 1", repo.saves)
	}
	m := r.Manifest()
	if m.Count != 4 || m.Dimensions != 4 || m.Provider != "test" || m.Model != "axis" {
		t.Errorf("unexpected manifest: %+v", m)
	}
}

func TestBuild_ReopensWithoutEmbedding(t *testing.T) {
	repo := newMemRepo()
	chunks := testChunks(t)
	ctx := context.Background()

	if _, err := newTestBuilder(repo).Build(ctx, chunks, newAxisEmbedder("go", "acme")); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	emb := newAxisEmbedder("go", "acme")
	r, err := newTestBuilder(repo).Build(ctx, chunks, emb)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if emb.batchCalls != 0 {
		t.Errorf("reopen must not embed, got %d batch calls", emb.batchCalls)
	}
	if repo.saves != 1 {
		t.Errorf("reopen must not save, got %d saves", repo.saves)
	}
	if r.Manifest().Count != len(chunks) {
		t.Errorf("Count = %d", r.Manifest().Count)
	}
}

func TestBuild_RebuildsOnContentChange(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	chunks := testChunks(t)

	if _, err := newTestBuilder(repo).Build(ctx, chunks, newAxisEmbedder("go")); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	extra, _ := chunk.New("Additional training: Kubernetes", chunk.Training)
	emb := newAxisEmbedder("go")
	r, err := newTestBuilder(repo).Build(ctx, append(chunks, extra), emb)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if emb.batchCalls != 1 || repo.saves != 2 {
		t.Errorf("expected rebuild: batchCalls=%d saves=%d", emb.batchCalls, repo.saves)
	}
	if r.Manifest().Count != 5 {
		t.Errorf("Count = %d, want 5", r.Manifest().Count)
	}
}

func TestBuild_RejectsIncompatible(t *testing.T) {
	repo := newMemRepo()
	repo.loadErr = domain.ErrIndexIncompatible
	emb := newAxisEmbedder("go")

	_, err := newTestBuilder(repo).Build(context.Background(), testChunks(t), emb)
	if !errors.Is(err, domain.ErrIndexIncompatible) {
		t.Fatalf("expected ErrIndexIncompatible, got %v", err)
	}
	if emb.batchCalls != 0 || repo.saves != 0 {
		t.Error("incompatible index must not be rebuilt in place")
	}
}

func TestBuild_SeparateLocationPerModel(t *testing.T) {
	repo := newMemRepo()
	ctx := context.Background()
	chunks := testChunks(t)

	a := newAxisEmbedder("go", "acme")
	if _, err := newTestBuilder(repo).Build(ctx, chunks, a); err != nil {
		t.Fatalf("Build a: %v", err)
	}
	b := newAxisEmbedder("go", "acme", "email")
	b.spec.Model = "axis-v2"
	r, err := newTestBuilder(repo).Build(ctx, chunks, b)
	if err != nil {
		t.Fatalf("Build b: %v", err)
	}
	if len(repo.snapshots) != 2 {
		t.Errorf("expected 2 locations, got %d", len(repo.snapshots))
	}
	if r.Manifest().Dimensions != 3 {
		t.Errorf("Dimensions = %d, want 3", r.Manifest().Dimensions)
	}
}

func TestBuild_DimensionMismatch(t *testing.T) {
	tests := []struct {
		name     string
		override [][]float32
		dims     int
	}{
		{"ragged vectors", [][]float32{{1, 0}, {1}, {0, 1}, {1, 1}}, 0},
		{"configured dims", [][]float32{{1, 0}, {0, 1}, {1, 1}, {0, 0}}, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			emb := newAxisEmbedder("go")
			emb.override = tc.override
			emb.spec.Dimensions = tc.dims

			_, err := newTestBuilder(newMemRepo()).Build(context.Background(), testChunks(t), emb)
			if !errors.Is(err, domain.ErrVectorDimMismatch) {
				t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
			}
		})
	}
}

func TestBuild_WrongEmbeddingCount(t *testing.T) {
	emb := newAxisEmbedder("go")
	emb.override = [][]float32{{1}}

	_, err := newTestBuilder(newMemRepo()).Build(context.Background(), testChunks(t), emb)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestBuild_EmbedError(t *testing.T) {
	repo := newMemRepo()
	emb := newAxisEmbedder("go")
	emb.embedErr = errors.New("503 service unavailable")

	_, err := newTestBuilder(repo).Build(context.Background(), testChunks(t), emb)
	if !errors.Is(err, emb.embedErr) {
		t.Fatalf("expected embed error, got %v", err)
	}
	if repo.saves != 0 {
		t.Error("failed build must not persist")
	}
}

func TestBuild_LoadError(t *testing.T) {
	repo := newMemRepo()
	repo.loadErr = errors.New("connection refused")

	_, err := newTestBuilder(repo).Build(context.Background(), testChunks(t), newAxisEmbedder("go"))
	if !errors.Is(err, repo.loadErr) {
		t.Fatalf("expected load error, got %v", err)
	}
}

func TestBuild_PersistsUnderIdentityKey(t *testing.T) {
	repo := newMemRepo()
	emb := newAxisEmbedder("go")
	if _, err := newTestBuilder(repo).Build(context.Background(), testChunks(t), emb); err != nil {
		t.Fatalf("Build: %v", err)
	}
	key := index.Identity{Name: "resume", Embedding: emb.Spec()}.Key()
	if _, ok := repo.snapshots[key]; !ok {
		t.Errorf("snapshot not found under %s", key)
	}
}
