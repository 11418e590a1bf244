package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/resumeqa/resumeqa/internal/db"
	"github.com/resumeqa/resumeqa/internal/index"
)

// store is the consumer interface for index snapshots (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Repo persists index snapshots, one blob per identity.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Load reads the snapshot for id. The manifest is checked against id before
// the entries are decoded; an incompatible snapshot is never returned.
func (r *Repo) Load(ctx context.Context, id index.Identity) (index.Manifest, *index.Index, error) {
	key := id.Key()
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, db.ErrKeyNotFound) {
		return index.Manifest{}, nil, index.ErrNotFound
	}
	if err != nil {
		return index.Manifest{}, nil, fmt.Errorf("get %s: %w", key, err)
	}

	m, err := index.DecodeManifest(data)
	if err != nil {
		return index.Manifest{}, nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if err := id.Check(m); err != nil {
		return m, nil, fmt.Errorf("%s: %w", key, err)
	}

	m, ix, err := index.Decode(data)
	if err != nil {
		return index.Manifest{}, nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return m, ix, nil
}

// Save writes the snapshot for id in a single atomic store write.
func (r *Repo) Save(ctx context.Context, id index.Identity, m index.Manifest, ix *index.Index) error {
	data, err := index.Encode(m, ix)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	key := id.Key()
	if err := r.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
