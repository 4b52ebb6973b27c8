package domain

import "fmt"

// Chunk represents a bounded contiguous span of a document's text, the
// atomic retrievable unit. Chunks are immutable once created; a document
// edit is modeled as delete-then-recreate.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int // order within the owning document
	Content    string
	Length     int // content length in runes
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.DocumentID == "" {
		return fmt.Errorf("chunk DocumentID is required")
	}

	if c.Index < 0 {
		return fmt.Errorf("chunk Index cannot be negative")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	return nil
}
