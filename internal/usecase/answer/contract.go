package answer

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
	"github.com/resumeqa/resumeqa/internal/domain/resume"
	"github.com/resumeqa/resumeqa/internal/usecase/retrieval"
)

// Source loads the resume and FAQ records.
type Source interface {
	Load(ctx context.Context) (resume.Record, resume.FAQ, error)
}

// Providers resolves the external models. Credentials are read when these
// are called, so a key added after startup is picked up on the next attempt.
type Providers interface {
	Embedder(ctx context.Context) (retrieval.Embedder, error)
	ChatModel(ctx context.Context) (domain.ChatModel, error)
}

// IndexBuilder opens or builds the vector index for a chunk set.
type IndexBuilder interface {
	Build(ctx context.Context, chunks []chunk.Chunk, emb retrieval.Embedder) (*retrieval.Retriever, error)
}

// Assembler turns retrieved chunks and a question into chat messages.
type Assembler interface {
	Assemble(ctx context.Context, chunks []chunk.Chunk, question string) ([]*schema.Message, error)
}
