package routes

import (
	"Driftwood/internal/api/handlers/nodeinfo"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterWellKnownRoutes registers the nodeinfo discovery endpoints
// Remote crawlers fetch these cross-origin, so CORS is open.
//
// Spec: https://nodeinfo.diaspora.software/protocol
func RegisterWellKnownRoutes(r chi.Router, publisher nodeinfo.Publisher) {
	handler := nodeinfo.NewHandler(publisher)

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept"},
			MaxAge:         300,
		}))

		r.Get("/.well-known/nodeinfo", handler.HandleWellKnown)
		r.Get("/nodeinfo/1.0", handler.HandleDocument10)
		r.Get("/nodeinfo/2.0", handler.HandleDocument20)
	})
}
