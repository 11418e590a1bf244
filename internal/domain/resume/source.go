package resume

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/resumeqa/resumeqa/internal/domain"
)

// FileSource loads the detailed resume and the optional FAQ from disk.
type FileSource struct {
	ResumePath string
	FAQPath    string
}

// Load reads both files. A missing or malformed resume is a configuration
// error; a missing FAQ yields an empty FAQ.
func (s FileSource) Load(_ context.Context) (Record, FAQ, error) {
	data, err := os.ReadFile(s.ResumePath)
	if err != nil {
		return Record{}, FAQ{}, fmt.Errorf("%w: read resume %s: %w", domain.ErrNotConfigured, s.ResumePath, err)
	}
	rec, err := Parse(data)
	if err != nil {
		return Record{}, FAQ{}, fmt.Errorf("%w: %s: %w", domain.ErrNotConfigured, s.ResumePath, err)
	}

	if s.FAQPath == "" {
		return rec, FAQ{}, nil
	}
	data, err = os.ReadFile(s.FAQPath)
	if errors.Is(err, fs.ErrNotExist) {
		return rec, FAQ{}, nil
	}
	if err != nil {
		return Record{}, FAQ{}, fmt.Errorf("%w: read faq %s: %w", domain.ErrNotConfigured, s.FAQPath, err)
	}
	faq, err := ParseFAQ(data)
	if err != nil {
		return Record{}, FAQ{}, fmt.Errorf("%w: %s: %w", domain.ErrNotConfigured, s.FAQPath, err)
	}
	return rec, faq, nil
}
