package chunk

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category labels the part of the source a chunk came from.
type Category string

const (
	// Profile holds contact details.
	Profile Category = "profile"
	// Summary holds skills, strengths, hobbies and the next challenge.
	Summary Category = "summary"
	// Technical holds one technical summary category.
	Technical Category = "technical"
	// Education holds one education entry.
	Education Category = "education"
	// Experience holds one professional experience entry.
	Experience Category = "experience"
	// Training holds additional training.
	Training Category = "training"
	// FAQ holds one question/answer pair.
	FAQ Category = "faq"
)

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	switch c {
	case Profile, Summary, Technical, Education, Experience, Training, FAQ:
		return true
	}
	return false
}

// namespace seeds deterministic chunk IDs.
var namespace = uuid.MustParse("6f1c4a52-3e0b-5d8e-9a43-0c2f7b1d9e60")

// Chunk is a retrievable passage (immutable value object).
type Chunk struct {
	text     string
	category Category
	company  string
}

// New validates and creates a Chunk. Text must contain a non-whitespace
// character; category must be known.
func New(text string, category Category) (Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return Chunk{}, fmt.Errorf("chunk text is required")
	}
	if !category.IsValid() {
		return Chunk{}, fmt.Errorf("invalid chunk category: %q", category)
	}
	return Chunk{text: text, category: category}, nil
}

// NewExperience creates an experience chunk labeled with its company.
func NewExperience(text, company string) (Chunk, error) {
	c, err := New(text, Experience)
	if err != nil {
		return Chunk{}, err
	}
	c.company = company
	return c, nil
}

// Reconstruct creates a Chunk without validation (snapshot hydration).
func Reconstruct(text string, category Category, company string) Chunk {
	return Chunk{text: text, category: category, company: company}
}

// Text returns the passage.
func (c Chunk) Text() string { return c.text }

// Category returns the source category.
func (c Chunk) Category() Category { return c.category }

// Company returns the company label; empty for non-experience chunks.
func (c Chunk) Company() string { return c.company }

// ID is a stable identifier derived from category and text.
func (c Chunk) ID() string {
	return uuid.NewSHA1(namespace, []byte(string(c.category)+"\x00"+c.text)).String()
}
