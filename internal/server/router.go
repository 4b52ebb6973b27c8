package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mindgrove-ai/studykit/internal/api"
	"github.com/mindgrove-ai/studykit/internal/api/handlers"
	"github.com/mindgrove-ai/studykit/internal/api/middleware"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	SearchHandler   *handlers.SearchHandler
	StudyHandler    *handlers.StudyHandler
	StatusHandler   *handlers.StatusHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", cfg.DocumentHandler.Create)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
	})

	r.Post("/search", cfg.SearchHandler.Search)
	r.Post("/ask", cfg.StudyHandler.Ask)
	r.Post("/generate", cfg.StudyHandler.Generate)
	r.Get("/status", cfg.StatusHandler.Status)

	return r
}
