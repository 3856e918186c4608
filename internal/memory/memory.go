// Package memory gives a conversational agent durable, cross-session
// knowledge about a user: a scored fact store, an LLM-backed extraction
// pipeline, and the turn orchestration that wires them around the
// conversation loop.
package memory

import (
	"errors"
	"fmt"
	"time"
)

// Category classifies a fact. The set is closed; the extractor and the
// store both reject values outside it.
type Category string

// Fact categories.
const (
	CategoryDietary     Category = "dietary"
	CategoryCuisine     Category = "cuisine"
	CategoryRestaurant  Category = "restaurant"
	CategoryLocation    Category = "location"
	CategoryDiningStyle Category = "dining-style"
	CategoryPersonal    Category = "personal"
)

// Categories returns the closed set of valid categories, in display order.
func Categories() []Category {
	return []Category{
		CategoryDietary,
		CategoryCuisine,
		CategoryRestaurant,
		CategoryLocation,
		CategoryDiningStyle,
		CategoryPersonal,
	}
}

// Source tags a fact's provenance.
type Source string

// Fact provenance values.
const (
	// SourceExtracted marks facts produced by the extraction pipeline.
	SourceExtracted Source = "extracted"
	// SourceExplicit marks facts from a user-issued remember command.
	SourceExplicit Source = "explicit"
)

// Sentinel errors for fact validation and storage decisions.
var (
	ErrEmptyContent      = errors.New("memory: fact content is empty")
	ErrInvalidImportance = errors.New("memory: importance must be between 1 and 10")
	ErrUnknownCategory   = errors.New("memory: unknown category")

	// ErrPrivacyRejected marks content turned away by the privacy gate.
	// A deliberate no-op, not a storage failure.
	ErrPrivacyRejected = errors.New("memory: content rejected by privacy gate")

	// ErrDuplicateFact marks content already covered by a stored fact in
	// the same category. A deliberate no-op, not a storage failure.
	ErrDuplicateFact = errors.New("memory: duplicate fact")
)

// ParseCategory validates s against the closed category set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	for _, valid := range Categories() {
		if c == valid {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
}

// Fact is a single remembered statement about the user.
//
// Content, Category, Importance, and Source are immutable after creation;
// facts are replaced, never edited. LastAccessedAt and AccessCount are
// bumped whenever the fact is selected for injection.
type Fact struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Category       Category  `json:"category"`
	Importance     int       `json:"importance"`
	Source         Source    `json:"source"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	AccessCount    int       `json:"access_count"`
	SessionID      int64     `json:"session_id"`
}

// Validate checks the fact invariants: non-empty content, importance in
// [1,10], and a known category.
func (f Fact) Validate() error {
	if f.Content == "" {
		return ErrEmptyContent
	}
	if f.Importance < 1 || f.Importance > 10 {
		return fmt.Errorf("%w: got %d", ErrInvalidImportance, f.Importance)
	}
	if _, err := ParseCategory(string(f.Category)); err != nil {
		return err
	}
	return nil
}
