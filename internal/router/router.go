package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/parisxmas/juridoc/internal/handler"
	mw "github.com/parisxmas/juridoc/internal/middleware"
)

func New(
	log *slog.Logger,
	corsOrigins []string,
	trustProxy bool,
	subH *handler.SubmissionHandler,
	attH *handler.AttachmentHandler,
	healthH *handler.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.RealIP(trustProxy))
	r.Use(mw.Logger(log))
	r.Use(mw.Recovery(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	// Submissions
	r.Post("/orcamento", subH.Create)
	r.Get("/orcamento", subH.List)
	r.Get("/orcamento/{id}", subH.Get)

	// Attachments
	r.Get("/pdf/{filename}", attH.Download)

	r.Get("/health", healthH.Health)
	r.Get("/api-docs", handler.OpenAPI)
	r.Get("/api-docs/openapi.yaml", handler.OpenAPI)

	return r
}
