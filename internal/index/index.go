// Package index holds the in-memory vector index, its persisted manifest and
// the snapshot codec used to store both.
package index

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
)

// Entry is a chunk with its embedding.
type Entry struct {
	Chunk  chunk.Chunk
	Vector []float32
}

// Hit is a search result.
type Hit struct {
	Chunk chunk.Chunk
	Score float32
}

// Index is a flat cosine-similarity index. Read-only after New.
type Index struct {
	entries []Entry
	norms   []float64
	dims    int
}

// New builds an index. All vectors must share one non-zero dimensionality.
func New(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("index requires at least one entry")
	}
	dims := len(entries[0].Vector)
	if dims == 0 {
		return nil, fmt.Errorf("%w: entry 0 has an empty vector", domain.ErrVectorDimMismatch)
	}

	ix := &Index{
		entries: make([]Entry, len(entries)),
		norms:   make([]float64, len(entries)),
		dims:    dims,
	}
	for i, e := range entries {
		if len(e.Vector) != dims {
			return nil, fmt.Errorf("%w: entry %d has %d dims, want %d",
				domain.ErrVectorDimMismatch, i, len(e.Vector), dims)
		}
		ix.entries[i] = Entry{Chunk: e.Chunk, Vector: slices.Clone(e.Vector)}
		ix.norms[i] = norm(e.Vector)
	}
	return ix, nil
}

// Dims returns the vector dimensionality.
func (ix *Index) Dims() int { return ix.dims }

// Len returns the number of entries.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns the entries in insertion order.
func (ix *Index) Entries() []Entry { return slices.Clone(ix.entries) }

// Search returns at most k hits by descending cosine similarity. Equal
// scores keep insertion order.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d",
			domain.ErrVectorDimMismatch, len(query), ix.dims)
	}
	if k <= 0 {
		return nil, nil
	}

	qn := norm(query)
	hits := make([]Hit, len(ix.entries))
	for i, e := range ix.entries {
		hits[i] = Hit{Chunk: e.Chunk, Score: cosine(query, e.Vector, qn, ix.norms[i])}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

// cosine returns 0 when either vector has zero length.
func cosine(a, b []float32, na, nb float64) float32 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (na * nb))
}
