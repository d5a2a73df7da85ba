// Package http provides the HTTP delivery layer for the QR links service.
// It contains the public redirect endpoint, the owner-authenticated link API
// and the middleware stack shared by both.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-playground/validator/v10"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/qr-links/pkg/middleware/recoverer"
)

// NewRouter initializes and returns a new Chi router configured with middleware and routes for the QR links API.
// scans serves the public redirect; linkUseCase and tokens serve the owner API.
func NewRouter(
	logger *httplog.Logger,
	linkUseCase linkUseCase,
	scans scanRecorder,
	tokens tokenVerifier,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger, serverErrorResponse))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger.yml")
	})

	rh := newRedirectHandler(scans)
	r.Get("/qr/{id}", rh.redirect)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)

		r.Route("/links", func(r chi.Router) {
			r.Use(authenticate(tokens))

			validate := validator.New()
			h := newLinkHandler(linkUseCase, validate)

			r.Post("/", h.createLink)
			r.Get("/", h.listLinks)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getLink)
				r.Get("/qr.png", h.getLinkImage)
				r.Put("/", h.modifyLink)
				r.Delete("/", h.removeLink)
			})
		})
	})

	return r
}
