package retrieval

import (
	"context"
	"fmt"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/index"
)

// DefaultK is the number of chunks retrieved per question.
const DefaultK = 4

// Retriever answers nearest-neighbor queries over a built index. Safe for
// concurrent use.
type Retriever struct {
	ix       *index.Index
	emb      domain.Embedder
	manifest index.Manifest
}

// Retrieve embeds query and returns at most k chunks, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]chunk.Chunk, error) {
	res, err := r.emb.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := r.ix.Search(res.Embedding, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := make([]chunk.Chunk, len(hits))
	for i, h := range hits {
		out[i] = h.Chunk
	}
	return out, nil
}

// Manifest describes the index behind this retriever.
func (r *Retriever) Manifest() index.Manifest {
	return r.manifest
}
