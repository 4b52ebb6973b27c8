package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/engine"
	"github.com/mindgrove-ai/studykit/internal/telemetry"
)

// topicTopK is how many chunks back a topic-focused generation.
const topicTopK = 5

// Material is a generated study material.
type Material struct {
	Type    domain.MaterialType
	Topic   string
	Content string
}

// StudyService generates summaries, flashcards and quizzes from the
// uploaded documents.
type StudyService struct {
	engine        RetrievalEngine
	chat          ChatClient
	minSimilarity float64
	sampleChunks  int
}

// NewStudyService creates a new StudyService instance
func NewStudyService(eng RetrievalEngine, chat ChatClient) *StudyService {
	return &StudyService{
		engine:        eng,
		chat:          chat,
		minSimilarity: engine.DefaultMinSimilarity,
		sampleChunks:  engine.DefaultSampleChunks,
	}
}

// Generate produces a study material of the given type. A topic narrows
// the context to the best-matching chunks; without one, a sample across
// all documents is used.
func (s *StudyService) Generate(ctx context.Context, materialType domain.MaterialType, topic string) (*Material, error) {
	ctx, span := telemetry.StartSpan(ctx, "StudyService.Generate", telemetry.SpanAttributes{
		MaterialType: string(materialType),
		Operation:    "generate",
	})
	defer span.End()

	if err := domain.ValidateMaterialType(materialType); err != nil {
		return nil, err
	}

	st, err := s.engine.Status(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if st.Documents == 0 {
		return nil, domain.ErrNoDocuments
	}

	var sources []domain.RetrievalResult
	if topic != "" {
		sources, err = s.engine.Retrieve(ctx, topic, topicTopK, s.minSimilarity)
	} else {
		sources, err = s.engine.SampleContext(ctx, s.sampleChunks)
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(sources) == 0 {
		return nil, domain.ErrNoContext
	}

	content, err := s.chat.GenerateStudyMaterial(ctx, materialType, joinContents(sources), topic)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &Material{
		Type:    materialType,
		Topic:   topic,
		Content: postProcessMaterial(content, materialType),
	}, nil
}

// postProcessMaterial normalizes whitespace and falls back to a minimal
// structure when the model ignored the requested format.
func postProcessMaterial(material string, materialType domain.MaterialType) string {
	if material == "" {
		return fmt.Sprintf("Error: No %s content was generated.", materialType)
	}

	processed := collapseBlankLines(material)

	switch materialType {
	case domain.MaterialSummary:
		if !strings.HasPrefix(processed, "#") {
			processed = "# Study Summary\n\n" + processed
		}
	case domain.MaterialFlashcards:
		if !strings.Contains(processed, "**Card") {
			processed = formatFlashcards(processed)
		}
	case domain.MaterialQuiz:
		if !strings.Contains(processed, "**Question") {
			processed = formatQuiz(processed)
		}
	}
	return processed
}

// collapseBlankLines trims each line and squeezes runs of blank lines.
func collapseBlankLines(s string) string {
	var cleaned []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		} else if len(cleaned) > 0 && cleaned[len(cleaned)-1] != "" {
			cleaned = append(cleaned, "")
		}
	}
	return strings.Join(cleaned, "\n")
}

func formatFlashcards(content string) string {
	var b strings.Builder
	b.WriteString("# Flashcards\n\n")

	cardNum := 1
	for _, line := range strings.Split(content, "\n") {
		if len(line) > 10 && strings.Contains(line, "?") {
			fmt.Fprintf(&b, "**Card %d:**\n", cardNum)
			fmt.Fprintf(&b, "**Front:** %s\n", line)
			b.WriteString("**Back:** [Answer based on study material]\n\n")
			cardNum++
		}
	}
	if cardNum == 1 {
		return content
	}
	return b.String()
}

func formatQuiz(content string) string {
	var b strings.Builder
	b.WriteString("# Quiz\n\n")

	questionNum := 1
	for _, line := range strings.Split(content, "\n") {
		if len(line) > 20 && strings.Contains(line, "?") {
			fmt.Fprintf(&b, "**Question %d:** %s\n", questionNum, line)
			b.WriteString("A) Option A\n")
			b.WriteString("B) Option B\n")
			b.WriteString("C) Option C\n")
			b.WriteString("D) Option D\n")
			b.WriteString("**Correct Answer:** A\n")
			b.WriteString("**Explanation:** [Based on study material]\n\n")
			questionNum++
			if questionNum > 5 {
				break
			}
		}
	}
	if questionNum == 1 {
		return content
	}
	return b.String()
}
