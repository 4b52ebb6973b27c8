package domain

// MaterialType identifies a kind of generated study material.
type MaterialType string

const (
	MaterialSummary    MaterialType = "summary"
	MaterialFlashcards MaterialType = "flashcards"
	MaterialQuiz       MaterialType = "quiz"
)

// ValidateMaterialType validates a MaterialType value
func ValidateMaterialType(t MaterialType) error {
	switch t {
	case MaterialSummary, MaterialFlashcards, MaterialQuiz:
		return nil
	}
	return ErrInvalidMaterialType
}
