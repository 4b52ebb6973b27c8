// Package service holds the question-answering and study-material flows
// built on top of the retrieval engine and the language model client.
package service

import (
	"context"
	"strings"

	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/engine"
	"github.com/mindgrove-ai/studykit/internal/telemetry"
)

// NoRelevantAnswer is returned when retrieval finds nothing above the
// similarity threshold.
const NoRelevantAnswer = "I cannot find relevant information in your uploaded documents to answer this question."

// RetrievalEngine defines the engine operations the services consume
type RetrievalEngine interface {
	Retrieve(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.RetrievalResult, error)
	SampleContext(ctx context.Context, maxChunks int) ([]domain.RetrievalResult, error)
	Status(ctx context.Context) (engine.Status, error)
}

// ChatClient defines the language model operations the services consume
type ChatClient interface {
	Available() bool
	GenerateAnswer(ctx context.Context, question, contextText string) (string, error)
	GenerateStudyMaterial(ctx context.Context, materialType domain.MaterialType, contextText, topic string) (string, error)
}

// Answer is a generated answer with its supporting sources.
type Answer struct {
	Answer     string
	Sources    []domain.RetrievalResult
	Confidence float64
}

// AnswerService answers questions grounded in the uploaded documents.
type AnswerService struct {
	engine        RetrievalEngine
	chat          ChatClient
	topK          int
	minSimilarity float64
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(eng RetrievalEngine, chat ChatClient) *AnswerService {
	return &AnswerService{
		engine:        eng,
		chat:          chat,
		topK:          engine.DefaultTopK,
		minSimilarity: engine.DefaultMinSimilarity,
	}
}

// Ask retrieves context for the question and asks the language model for
// a grounded answer. Confidence is the mean similarity of the sources.
func (s *AnswerService) Ask(ctx context.Context, question string) (*Answer, error) {
	ctx, span := telemetry.StartSpan(ctx, "AnswerService.Ask", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	st, err := s.engine.Status(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if st.Documents == 0 {
		return nil, domain.ErrNoDocuments
	}

	sources, err := s.engine.Retrieve(ctx, question, s.topK, s.minSimilarity)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(sources) == 0 {
		return &Answer{
			Answer:  NoRelevantAnswer,
			Sources: []domain.RetrievalResult{},
		}, nil
	}

	answer, err := s.chat.GenerateAnswer(ctx, question, joinContents(sources))
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	return &Answer{
		Answer:     answer,
		Sources:    sources,
		Confidence: meanSimilarity(sources),
	}, nil
}

func joinContents(results []domain.RetrievalResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Content
	}
	return strings.Join(parts, "\n\n")
}

func meanSimilarity(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range results {
		sum += r.Similarity
	}
	return sum / float64(len(results))
}
