package index

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/resumeqa/resumeqa/internal/domain/chunk"
)

// EncodeAll/DecodeAll are safe for concurrent use on a shared coder.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

type snapshotDTO struct {
	Manifest Manifest   `json:"manifest"`
	Entries  []entryDTO `json:"entries"`
}

type entryDTO struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Company  string    `json:"company,omitempty"`
	Text     string    `json:"text"`
	Vector   []float32 `json:"vector"`
}

// Encode serializes a manifest and index as zstd-compressed JSON.
func Encode(m Manifest, ix *Index) ([]byte, error) {
	dto := snapshotDTO{Manifest: m, Entries: make([]entryDTO, 0, ix.Len())}
	for _, e := range ix.entries {
		dto.Entries = append(dto.Entries, entryDTO{
			ID:       e.Chunk.ID(),
			Category: string(e.Chunk.Category()),
			Company:  e.Chunk.Company(),
			Text:     e.Chunk.Text(),
			Vector:   e.Vector,
		})
	}
	raw, err := json.Marshal(dto)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// DecodeManifest reads only the manifest of a snapshot.
func DecodeManifest(data []byte) (Manifest, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return Manifest{}, fmt.Errorf("decompress snapshot: %w", err)
	}
	var dto struct {
		Manifest Manifest `json:"manifest"`
	}
	if err := json.Unmarshal(raw, &dto); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return dto.Manifest, nil
}

// Decode restores a manifest and index. The entry count and dimensionality
// must agree with the manifest.
func Decode(data []byte) (Manifest, *Index, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("decompress snapshot: %w", err)
	}
	var dto snapshotDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return Manifest{}, nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	entries := make([]Entry, len(dto.Entries))
	for i, e := range dto.Entries {
		entries[i] = Entry{
			Chunk:  chunk.Reconstruct(e.Text, chunk.Category(e.Category), e.Company),
			Vector: e.Vector,
		}
	}
	ix, err := New(entries)
	if err != nil {
		return Manifest{}, nil, fmt.Errorf("restore index: %w", err)
	}
	if ix.Len() != dto.Manifest.Count || ix.Dims() != dto.Manifest.Dimensions {
		return Manifest{}, nil, fmt.Errorf("snapshot holds %d x %d, manifest says %d x %d",
			ix.Len(), ix.Dims(), dto.Manifest.Count, dto.Manifest.Dimensions)
	}
	return dto.Manifest, ix, nil
}
