package nodeinfo

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"Driftwood/internal/core/nodeinfo"
)

// Publisher builds the nodeinfo documents
type Publisher interface {
	Document(ctx context.Context, version string) (*nodeinfo.Document, error)
	WellKnown() nodeinfo.WellKnown
}

// Handler serves nodeinfo discovery and documents
type Handler struct {
	publisher Publisher
}

// NewHandler creates the nodeinfo handler
func NewHandler(publisher Publisher) *Handler {
	return &Handler{publisher: publisher}
}

// HandleWellKnown serves GET /.well-known/nodeinfo
func (h *Handler) HandleWellKnown(w http.ResponseWriter, r *http.Request) {
	writeDocument(w, "application/json", h.publisher.WellKnown())
}

// HandleDocument10 serves GET /nodeinfo/1.0
func (h *Handler) HandleDocument10(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "1.0")
}

// HandleDocument20 serves GET /nodeinfo/2.0
func (h *Handler) HandleDocument20(w http.ResponseWriter, r *http.Request) {
	h.serveDocument(w, r, "2.0")
}

func (h *Handler) serveDocument(w http.ResponseWriter, r *http.Request, version string) {
	doc, err := h.publisher.Document(r.Context(), version)
	if err != nil {
		slog.Error("failed to build nodeinfo", "version", version, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	contentType := `application/json; profile="http://nodeinfo.diaspora.software/ns/schema/` + version + `#"`
	writeDocument(w, contentType, doc)
}

func writeDocument(w http.ResponseWriter, contentType string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode nodeinfo", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("failed to write nodeinfo", "error", err)
	}
}
