package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mindgrove-ai/studykit/internal/api"
	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/service"
)

// AnswerProvider defines the question-answering flow the handler consumes
type AnswerProvider interface {
	Ask(ctx context.Context, question string) (*service.Answer, error)
}

// MaterialProvider defines the study-material flow the handler consumes
type MaterialProvider interface {
	Generate(ctx context.Context, materialType domain.MaterialType, topic string) (*service.Material, error)
}

// StudyHandler serves grounded answers and generated study materials.
type StudyHandler struct {
	answers   AnswerProvider
	materials MaterialProvider
}

func NewStudyHandler(answers AnswerProvider, materials MaterialProvider) *StudyHandler {
	return &StudyHandler{answers: answers, materials: materials}
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer     string         `json:"answer"`
	Sources    []SearchResult `json:"sources"`
	Confidence float64        `json:"confidence"`
}

func (h *StudyHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.answers.Ask(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{
		Answer:     answer.Answer,
		Sources:    retrievalToResults(answer.Sources),
		Confidence: answer.Confidence,
	})
}

type GenerateRequest struct {
	MaterialType string `json:"material_type"`
	Topic        string `json:"topic,omitempty"`
}

type GenerateResponse struct {
	MaterialType string `json:"material_type"`
	Topic        string `json:"topic,omitempty"`
	Content      string `json:"content"`
}

func (h *StudyHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaterialType == "" {
		api.Error(w, http.StatusBadRequest, "material_type is required")
		return
	}

	material, err := h.materials.Generate(r.Context(), domain.MaterialType(req.MaterialType), req.Topic)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, GenerateResponse{
		MaterialType: string(material.Type),
		Topic:        material.Topic,
		Content:      material.Content,
	})
}
