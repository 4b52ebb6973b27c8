// Package llm wraps the chat-completion API used to turn retrieved
// context into prose answers and generated study materials.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

const (
	// DefaultBaseURL points at Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the chat model used for generation.
	DefaultModel = "llama3-70b-8192"

	answerMaxTokens   = 500
	materialMaxTokens = 800
	quizMaxTokens     = 1000

	temperature = 0.3
	topP        = 0.9
)

var (
	// ErrEmptyContext is returned when no context text is supplied
	ErrEmptyContext = errors.New("context cannot be empty")
	// ErrNoChoices is returned when the API responds without any completion
	ErrNoChoices = errors.New("no completion choices returned")
)

// ChatAPI defines the interface for chat completion calls
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client generates answers and study materials from retrieved context.
// A nil api (no key configured) makes the client unavailable rather than
// an error at construction time.
type Client struct {
	api   ChatAPI
	model string
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// NewClient creates a Client against a Groq/OpenAI-compatible endpoint.
// With an empty API key the client is constructed but unavailable.
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.APIKey == "" {
		return &Client{model: model}
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	if apiCfg.BaseURL == "" {
		apiCfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: model,
	}
}

// NewClientWithAPI creates a Client over a custom ChatAPI (for testing).
func NewClientWithAPI(api ChatAPI, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: api, model: model}
}

// Available reports whether the client can reach a chat API.
func (c *Client) Available() bool {
	return c.api != nil
}

// GenerateAnswer answers a question grounded in the given context.
func (c *Client) GenerateAnswer(ctx context.Context, question, contextText string) (string, error) {
	if !c.Available() {
		return "", domain.ErrLLMUnavailable
	}
	if strings.TrimSpace(contextText) == "" {
		return "", ErrEmptyContext
	}

	answer, err := c.complete(ctx, answerPrompt(question, contextText), answerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	if answer == "" {
		return "No response generated.", nil
	}
	return answer, nil
}

// GenerateStudyMaterial produces a summary, flashcards or a quiz from the
// given context, optionally focused on a topic.
func (c *Client) GenerateStudyMaterial(ctx context.Context, materialType domain.MaterialType, contextText, topic string) (string, error) {
	if !c.Available() {
		return "", domain.ErrLLMUnavailable
	}
	if err := domain.ValidateMaterialType(materialType); err != nil {
		return "", err
	}
	if strings.TrimSpace(contextText) == "" {
		return "", ErrEmptyContext
	}

	maxTokens := materialMaxTokens
	if materialType == domain.MaterialQuiz {
		maxTokens = quizMaxTokens
	}

	content, err := c.complete(ctx, studyPrompt(materialType, contextText, topic), maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", materialType, err)
	}
	if content == "" {
		return fmt.Sprintf("No %s generated.", materialType), nil
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
