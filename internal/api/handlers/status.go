package handlers

import (
	"context"
	"net/http"

	"github.com/mindgrove-ai/studykit/internal/api"
	"github.com/mindgrove-ai/studykit/internal/engine"
)

// StatusEngine defines the engine operations the status handler consumes
type StatusEngine interface {
	Status(ctx context.Context) (engine.Status, error)
}

type StatusHandler struct {
	eng          StatusEngine
	llmAvailable bool
}

func NewStatusHandler(eng StatusEngine, llmAvailable bool) *StatusHandler {
	return &StatusHandler{eng: eng, llmAvailable: llmAvailable}
}

type StatusResponse struct {
	Documents     int    `json:"documents"`
	Chunks        int    `json:"chunks"`
	IndexedChunks int    `json:"indexed_chunks"`
	IndexReady    bool   `json:"index_ready"`
	Fingerprint   string `json:"fingerprint,omitempty"`
	LLMAvailable  bool   `json:"llm_available"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.eng.Status(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatusResponse{
		Documents:     st.Documents,
		Chunks:        st.Chunks,
		IndexedChunks: st.IndexedChunks,
		IndexReady:    st.IndexReady,
		Fingerprint:   st.Fingerprint,
		LLMAvailable:  h.llmAvailable,
	})
}
