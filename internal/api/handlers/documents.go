package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindgrove-ai/studykit/internal/api"
	"github.com/mindgrove-ai/studykit/internal/domain"
)

// DocumentEngine defines the engine operations the document handler consumes
type DocumentEngine interface {
	AddDocument(ctx context.Context, filename, text string) (*domain.Document, error)
	RemoveDocument(ctx context.Context, id string) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context) ([]*domain.Document, error)
}

type DocumentHandler struct {
	eng DocumentEngine
}

func NewDocumentHandler(eng DocumentEngine) *DocumentHandler {
	return &DocumentHandler{eng: eng}
}

// UploadDocumentRequest carries extracted plain text; binary decoding
// (PDF parsing and the like) happens upstream of this API.
type UploadDocumentRequest struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	Status     string `json:"status"`
	Warning    string `json:"warning,omitempty"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		Filename:   d.Filename,
		Size:       d.Size,
		Status:     string(d.Status),
		Warning:    d.Warning,
		ChunkCount: len(d.ChunkIDs),
		UploadedAt: d.UploadedAt.Format(time.RFC3339),
	}
}

func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UploadDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	doc, err := h.eng.AddDocument(r.Context(), req.Filename, req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, documentToResponse(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.eng.ListDocuments(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		resp[i] = documentToResponse(d)
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.eng.GetDocument(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, documentToResponse(doc))
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.eng.RemoveDocument(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"message": "document deleted"})
}
