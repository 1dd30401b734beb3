package routes

import (
	"Driftwood/internal/api/handlers/fcontact"
	"Driftwood/internal/core/fcontacts"

	"github.com/go-chi/chi/v5"
)

// RegisterFContactRoutes registers the remote identity cache endpoints
func RegisterFContactRoutes(r chi.Router, service fcontacts.Service) {
	handler := fcontact.NewHandler(service)

	r.Route("/api/fcontacts", func(r chi.Router) {
		// Resolve a handle (user@host or profile URL), refreshing per ?refresh=
		r.Get("/resolve", handler.HandleResolve)

		// Profile URL for a Diaspora guid; served from the cache only
		r.Get("/guid/{guid}", handler.HandleURLByGUID)
	})
}
