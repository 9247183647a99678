package handlers

import (
	"net/http"

	"github.com/okezie-c/docingest/internal/core"
)

type HealthHandler struct {
	layout core.LayoutEngine
}

func NewHealthHandler(layout core.LayoutEngine) *HealthHandler {
	return &HealthHandler{layout: layout}
}

// Root is the basic liveness endpoint.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":          "Document Processing Service",
		"status":           "healthy",
		"layout_available": h.layout.Available(r.Context()),
	})
}

// Health reports readiness, including whether the layout engine can
// accept work and which formats are supported.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	available := h.layout.Available(r.Context())

	formats := []string{}
	if available {
		formats = []string{"PDF", "DOCX", "PPTX", "HTML"}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "healthy",
		"layout_available":  available,
		"supported_formats": formats,
	})
}
