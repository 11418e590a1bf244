package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/index"
)

// Builder opens or builds the index for a chunk set.
type Builder struct {
	repo   Repository
	name   string
	logger *zap.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder that stores indexes under name.
func NewBuilder(repo Repository, name string, logger *zap.Logger) *Builder {
	return &Builder{repo: repo, name: name, logger: logger, now: time.Now}
}

// Build returns a Retriever over chunks.
//
// The stored snapshot for the embedder's identity is reused when its content
// fingerprint matches chunks. A missing snapshot or a fingerprint change
// triggers a full re-embed and an atomic overwrite. A snapshot written under
// another schema, provider, model or dimensionality is rejected.
func (b *Builder) Build(ctx context.Context, chunks []chunk.Chunk, emb Embedder) (*Retriever, error) {
	if len(chunks) == 0 {
		return nil, domain.ErrNoChunks
	}

	id := index.Identity{Name: b.name, Embedding: emb.Spec()}
	fp := index.Fingerprint(chunks)
	log := b.logger.With(zap.String("index", id.Key()))

	m, ix, err := b.repo.Load(ctx, id)
	switch {
	case err == nil && m.Fingerprint == fp:
		log.Info("index opened", zap.Int("entries", m.Count), zap.Int("dims", m.Dimensions))
		return &Retriever{ix: ix, emb: emb, manifest: m}, nil
	case err == nil:
		log.Info("index content changed, rebuilding",
			zap.String("stored_fingerprint", m.Fingerprint), zap.String("fingerprint", fp))
	case errors.Is(err, index.ErrNotFound):
		log.Info("index not found, building")
	default:
		return nil, fmt.Errorf("load index: %w", err)
	}

	ix, err = b.embed(ctx, chunks, emb)
	if err != nil {
		return nil, err
	}
	m = id.Manifest(ix, fp, b.now())
	if err := b.repo.Save(ctx, id, m, ix); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}
	log.Info("index built", zap.Int("entries", m.Count), zap.Int("dims", m.Dimensions))
	return &Retriever{ix: ix, emb: emb, manifest: m}, nil
}

func (b *Builder) embed(ctx context.Context, chunks []chunk.Chunk, emb Embedder) (*index.Index, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text()
	}

	res, err := emb.BatchEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(res.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrUpstream, len(res.Embeddings), len(chunks))
	}

	want := emb.Spec().Dimensions
	entries := make([]index.Entry, len(chunks))
	for i, c := range chunks {
		vec := res.Embeddings[i]
		if want > 0 && len(vec) != want {
			return nil, fmt.Errorf("%w: chunk %d has %d dims, configured %d",
				domain.ErrVectorDimMismatch, i, len(vec), want)
		}
		entries[i] = index.Entry{Chunk: c, Vector: vec}
	}

	ix, err := index.New(entries)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return ix, nil
}
