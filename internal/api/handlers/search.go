package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mindgrove-ai/studykit/internal/api"
	"github.com/mindgrove-ai/studykit/internal/domain"
)

// SearchEngine defines the engine operations the search handler consumes
type SearchEngine interface {
	Retrieve(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.RetrievalResult, error)
}

// SearchHandler exposes raw similarity retrieval without the LLM step.
type SearchHandler struct {
	eng           SearchEngine
	topK          int
	minSimilarity float64
}

func NewSearchHandler(eng SearchEngine, topK int, minSimilarity float64) *SearchHandler {
	return &SearchHandler{eng: eng, topK: topK, minSimilarity: minSimilarity}
}

type SearchRequest struct {
	Query         string   `json:"query"`
	TopK          int      `json:"top_k,omitempty"`
	MinSimilarity *float64 `json:"min_similarity,omitempty"`
}

type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
	Rank       int     `json:"rank"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

func retrievalToResults(results []domain.RetrievalResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Filename:   r.Filename,
			ChunkIndex: r.ChunkIndex,
			Content:    r.Content,
			Similarity: r.Similarity,
			Rank:       r.Rank,
		}
	}
	return out
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = h.topK
	}
	minSimilarity := h.minSimilarity
	if req.MinSimilarity != nil {
		minSimilarity = *req.MinSimilarity
	}

	results, err := h.eng.Retrieve(r.Context(), req.Query, topK, minSimilarity)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{Results: retrievalToResults(results)})
}
