package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vikenamera/CraftVersee/internal/content"
)

// TermsHandlers serves the terms-of-service dialog.
type TermsHandlers struct {
	doc content.Document
}

// NewTermsHandlers wraps a rendered terms document.
func NewTermsHandlers(doc content.Document) *TermsHandlers {
	return &TermsHandlers{doc: doc}
}

// Routes wires GET /terms onto the provided router.
func (h *TermsHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/terms", h.modal)
}

func (h *TermsHandlers) modal(w http.ResponseWriter, r *http.Request) {
	if h.doc.HTML == "" {
		writeError(w, r, http.StatusNotFound, "terms_unavailable", "terms are not available")
		return
	}
	renderTemplate(w, r, http.StatusOK, "terms_modal", h.doc)
}
