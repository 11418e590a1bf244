package retrieval

import (
	"context"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/index"
)

// Repository persists index snapshots per identity.
type Repository interface {
	Load(ctx context.Context, id index.Identity) (index.Manifest, *index.Index, error)
	Save(ctx context.Context, id index.Identity, m index.Manifest, ix *index.Index) error
}

// Embedder embeds queries one at a time and documents in batches. Spec
// identifies the vector space so incompatible indexes never mix.
type Embedder interface {
	domain.Embedder
	domain.BatchEmbedder
	Spec() domain.EmbeddingSpec
}
