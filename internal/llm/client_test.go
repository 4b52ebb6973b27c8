package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

// MockChatAPI is a mock for the chat completion API
type MockChatAPI struct {
	mock.Mock
}

func (m *MockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestClient_GenerateAnswer(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		client := NewClientWithAPI(mockAPI, "")

		mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.Model == DefaultModel &&
				req.MaxTokens == answerMaxTokens &&
				len(req.Messages) == 1
		})).Return(chatResponse("  Photosynthesis converts light into chemical energy.\n"), nil)

		answer, err := client.GenerateAnswer(ctx, "What does photosynthesis do?", "Photosynthesis converts light energy.")
		require.NoError(t, err)
		assert.Equal(t, "Photosynthesis converts light into chemical energy.", answer)
		mockAPI.AssertExpectations(t)
	})

	t.Run("unavailable without API key", func(t *testing.T) {
		client := NewClient(Config{})
		assert.False(t, client.Available())

		_, err := client.GenerateAnswer(ctx, "question", "context")
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("empty context", func(t *testing.T) {
		client := NewClientWithAPI(new(MockChatAPI), "")
		_, err := client.GenerateAnswer(ctx, "question", "   ")
		assert.ErrorIs(t, err, ErrEmptyContext)
	})

	t.Run("API error propagates", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		client := NewClientWithAPI(mockAPI, "")

		mockAPI.On("CreateChatCompletion", ctx, mock.Anything).
			Return(openai.ChatCompletionResponse{}, errors.New("rate limited"))

		_, err := client.GenerateAnswer(ctx, "question", "context")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to generate answer")
	})

	t.Run("blank completion", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		client := NewClientWithAPI(mockAPI, "")

		mockAPI.On("CreateChatCompletion", ctx, mock.Anything).Return(chatResponse("   "), nil)

		answer, err := client.GenerateAnswer(ctx, "question", "context")
		require.NoError(t, err)
		assert.Equal(t, "No response generated.", answer)
	})
}

func TestClient_GenerateStudyMaterial(t *testing.T) {
	ctx := context.Background()

	t.Run("quiz uses the larger token budget", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		client := NewClientWithAPI(mockAPI, "")

		mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.MaxTokens == quizMaxTokens
		})).Return(chatResponse("**Question 1:** ..."), nil)

		content, err := client.GenerateStudyMaterial(ctx, domain.MaterialQuiz, "context", "")
		require.NoError(t, err)
		assert.Equal(t, "**Question 1:** ...", content)
		mockAPI.AssertExpectations(t)
	})

	t.Run("summary uses the standard token budget", func(t *testing.T) {
		mockAPI := new(MockChatAPI)
		client := NewClientWithAPI(mockAPI, "")

		mockAPI.On("CreateChatCompletion", ctx, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
			return req.MaxTokens == materialMaxTokens
		})).Return(chatResponse("# Summary"), nil)

		_, err := client.GenerateStudyMaterial(ctx, domain.MaterialSummary, "context", "cells")
		require.NoError(t, err)
		mockAPI.AssertExpectations(t)
	})

	t.Run("invalid material type", func(t *testing.T) {
		client := NewClientWithAPI(new(MockChatAPI), "")
		_, err := client.GenerateStudyMaterial(ctx, "poster", "context", "")
		assert.ErrorIs(t, err, domain.ErrInvalidMaterialType)
	})
}

func TestPrompts(t *testing.T) {
	t.Run("answer prompt embeds question and context", func(t *testing.T) {
		p := answerPrompt("What is ATP?", "Mitochondria produce ATP.")
		assert.Contains(t, p, "What is ATP?")
		assert.Contains(t, p, "Mitochondria produce ATP.")
		assert.Contains(t, p, "**ANSWER:**")
	})

	t.Run("study prompt mentions the topic when given", func(t *testing.T) {
		p := studyPrompt(domain.MaterialFlashcards, "content", "photosynthesis")
		assert.Contains(t, p, "focusing on photosynthesis")
		assert.Contains(t, p, "**FLASHCARDS:**")
	})

	t.Run("study prompt omits topic clause when empty", func(t *testing.T) {
		p := studyPrompt(domain.MaterialSummary, "content", "")
		assert.NotContains(t, p, "focusing on")
		assert.Contains(t, p, "**SUMMARY:**")
	})
}
