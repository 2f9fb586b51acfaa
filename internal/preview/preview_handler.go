package preview

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"frotadocs/internal/auth"
	"frotadocs/internal/service"
)

type Handler struct {
	previews  *Service
	documents *service.DocumentService
	sessions  *service.SessionService
}

func NewHandler(previews *Service, documents *service.DocumentService, sessions *service.SessionService) *Handler {
	return &Handler{
		previews:  previews,
		documents: documents,
		sessions:  sessions,
	}
}

// GetPreview отдает JPEG первой страницы документа. Видимость проверяется
// так же, как при скачивании: чужой документ неотличим от отсутствующего.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	token, err := auth.BearerToken(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	principal, err := h.sessions.Authenticate(r.Context(), token)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	doc, err := h.documents.GetVisible(r.Context(), id, principal)
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to get document", http.StatusInternalServerError)
		return
	}

	data, err := h.previews.GetOrGenerate(r.Context(), doc)
	if err != nil {
		http.Error(w, "Failed to generate preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
