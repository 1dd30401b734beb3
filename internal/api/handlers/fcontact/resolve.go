package fcontact

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"Driftwood/internal/core/fcontacts"
)

// maxHandleLength bounds the handle parameter; profile URLs fit in a VARCHAR(255)
const maxHandleLength = 512

// Handler serves the fcontact cache over HTTP
type Handler struct {
	service fcontacts.Service
}

// NewHandler creates the fcontact handler
func NewHandler(service fcontacts.Service) *Handler {
	return &Handler{service: service}
}

// HandleResolve resolves a Diaspora handle through the cache
// GET /api/fcontacts/resolve?handle={user@host|url}&refresh=auto|force|never
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimSpace(r.URL.Query().Get("handle"))
	if handle == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "handle parameter is required")
		return
	}
	if len(handle) > maxHandleLength {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "handle parameter exceeds maximum length")
		return
	}

	policy, err := fcontacts.ParseRefreshPolicy(r.URL.Query().Get("refresh"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	contact, err := h.service.Resolve(r.Context(), handle, policy)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if contact == nil {
		writeError(w, http.StatusNotFound, "ContactNotFound", "Contact could not be resolved")
		return
	}

	writeJSON(w, contact)
}

// HandleURLByGUID returns the profile url stored for a guid
// GET /api/fcontacts/guid/{guid}
func (h *Handler) HandleURLByGUID(w http.ResponseWriter, r *http.Request) {
	guid := chi.URLParam(r, "guid")

	url, ok, err := h.service.LookupURLByGUID(r.Context(), guid)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "ContactNotFound", "No contact with this guid")
		return
	}

	writeJSON(w, map[string]string{"guid": guid, "url": url})
}
