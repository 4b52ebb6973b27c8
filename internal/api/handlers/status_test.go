package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mindgrove-ai/studykit/internal/engine"
)

type MockStatusEngine struct {
	mock.Mock
}

func (m *MockStatusEngine) Status(ctx context.Context) (engine.Status, error) {
	args := m.Called(ctx)
	return args.Get(0).(engine.Status), args.Error(1)
}

func TestStatusHandler_Status(t *testing.T) {
	t.Run("reports engine and llm state", func(t *testing.T) {
		eng := new(MockStatusEngine)
		h := NewStatusHandler(eng, true)

		eng.On("Status", mock.Anything).Return(engine.Status{
			Documents:     2,
			Chunks:        9,
			IndexedChunks: 9,
			IndexReady:    true,
			Fingerprint:   "abc123",
		}, nil)

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()

		h.Status(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data StatusResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Documents)
		assert.Equal(t, 9, resp.Data.IndexedChunks)
		assert.True(t, resp.Data.IndexReady)
		assert.Equal(t, "abc123", resp.Data.Fingerprint)
		assert.True(t, resp.Data.LLMAvailable)
	})

	t.Run("llm not configured", func(t *testing.T) {
		eng := new(MockStatusEngine)
		h := NewStatusHandler(eng, false)

		eng.On("Status", mock.Anything).Return(engine.Status{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()

		h.Status(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data StatusResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.LLMAvailable)
	})

	t.Run("store failure maps to 500", func(t *testing.T) {
		eng := new(MockStatusEngine)
		h := NewStatusHandler(eng, true)

		eng.On("Status", mock.Anything).Return(engine.Status{}, errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/status", nil)
		w := httptest.NewRecorder()

		h.Status(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
