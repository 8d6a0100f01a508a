package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)
	if h.requestTimeout > 0 {
		router.Use(middleware.Timeout(h.requestTimeout))
	}

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
		r.Get("/api/version/", h.getServerVersion)
	})

	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/api/containers/{container}", func(r chi.Router) {
			r.Put("/", h.createContainer)
			r.Delete("/", h.deleteContainer)

			r.Post("/records/modify", h.modifyRecords)
			r.Post("/records/query", h.queryRecords)
			r.Post("/records/metadata", h.fetchMetadata)
		})
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
