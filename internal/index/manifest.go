package index

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/resumeqa/resumeqa/internal/domain"
	"github.com/resumeqa/resumeqa/internal/domain/chunk"
)

// SchemaVersion is bumped whenever the snapshot layout or chunk format
// changes. Snapshots with another version are never opened.
const SchemaVersion = 2

// ErrNotFound is returned when no snapshot exists for an identity.
var ErrNotFound = errors.New("index snapshot not found")

// Manifest describes a persisted index.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	Provider      string    `json:"provider"`
	Model         string    `json:"model"`
	Dimensions    int       `json:"dimensions"`
	Count         int       `json:"count"`
	Fingerprint   string    `json:"fingerprint"`
	BuiltAt       time.Time `json:"built_at"`
}

// Identity names an index generation: one location per schema version,
// provider, model and configured dimensionality.
type Identity struct {
	Name      string
	Embedding domain.EmbeddingSpec
}

// Key returns the storage key of this generation, e.g.
// "resume/v2/openai-text-embedding-004-auto.idx.zst".
func (id Identity) Key() string {
	dims := "auto"
	if id.Embedding.Dimensions > 0 {
		dims = strconv.Itoa(id.Embedding.Dimensions)
	}
	return fmt.Sprintf("%s/v%d/%s-%s-%s.idx.zst",
		sanitize(id.Name), SchemaVersion, sanitize(id.Embedding.Provider), sanitize(id.Embedding.Model), dims)
}

// Check rejects a manifest written under another schema, provider, model or
// dimensionality.
func (id Identity) Check(m Manifest) error {
	switch {
	case m.SchemaVersion != SchemaVersion:
		return fmt.Errorf("%w: schema v%d, want v%d", domain.ErrIndexIncompatible, m.SchemaVersion, SchemaVersion)
	case m.Provider != id.Embedding.Provider || m.Model != id.Embedding.Model:
		return fmt.Errorf("%w: built with %s/%s, want %s/%s", domain.ErrIndexIncompatible,
			m.Provider, m.Model, id.Embedding.Provider, id.Embedding.Model)
	case id.Embedding.Dimensions > 0 && m.Dimensions != id.Embedding.Dimensions:
		return fmt.Errorf("%w: %d dims, want %d", domain.ErrIndexIncompatible, m.Dimensions, id.Embedding.Dimensions)
	}
	return nil
}

// Manifest describes an index built for this identity.
func (id Identity) Manifest(ix *Index, fingerprint string, builtAt time.Time) Manifest {
	return Manifest{
		SchemaVersion: SchemaVersion,
		Provider:      id.Embedding.Provider,
		Model:         id.Embedding.Model,
		Dimensions:    ix.Dims(),
		Count:         ix.Len(),
		Fingerprint:   fingerprint,
		BuiltAt:       builtAt.UTC(),
	}
}

// Fingerprint hashes the ordered chunk contents. Any change in the source
// records yields a different fingerprint.
func Fingerprint(chunks []chunk.Chunk) string {
	d := xxhash.New()
	for _, c := range chunks {
		_, _ = d.WriteString(string(c.Category()))
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(c.Company())
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(c.Text())
		_, _ = d.WriteString("\x1e")
	}
	return hex.EncodeToString(d.Sum(nil))
}

func sanitize(s string) string {
	if s == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}
