package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"frotadocs/internal/auth"
	"frotadocs/internal/domain"
	"frotadocs/internal/service"
)

const maxUploadSize = 10 * 1024 * 1024 // 10MiB

type DocumentHandler struct {
	documents *service.DocumentService
	sessions  *service.SessionService
}

func NewDocumentHandler(documents *service.DocumentService, sessions *service.SessionService) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		sessions:  sessions,
	}
}

type uploadResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Upload принимает multipart-форму: поля id, cargo, empresas и файл arquivo.
// Поле empresas приходит в трех видах — JSON-массив, JSON-строка с массивом,
// голая строка — и нормализуется до набора строк еще на границе.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	id := r.FormValue("id")
	role := r.FormValue("cargo")
	companies := domain.NormalizeCompanyTags(r.FormValue("empresas"))

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeServiceError(w, service.ErrMissingContent)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	doc, err := h.documents.Upload(r.Context(), domain.DocumentUpload{
		ID:        id,
		Role:      role,
		Companies: companies,
		Name:      header.Filename,
		MIMEType:  header.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message: "document stored",
		ID:      doc.ID,
		Version: doc.Version,
	})
}

// FetchByID отдает содержимое документа по клиентскому идентификатору.
func (h *DocumentHandler) FetchByID(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, func(p *domain.Principal) (*domain.DocumentDownload, error) {
		return h.documents.FetchByID(r.Context(), chi.URLParam(r, "id"), p)
	})
}

// FetchByVersion отдает содержимое документа по номеру версии.
func (h *DocumentHandler) FetchByVersion(w http.ResponseWriter, r *http.Request) {
	h.fetch(w, r, func(p *domain.Principal) (*domain.DocumentDownload, error) {
		return h.documents.FetchByVersion(r.Context(), chi.URLParam(r, "version"), p)
	})
}

func (h *DocumentHandler) fetch(w http.ResponseWriter, r *http.Request, get func(*domain.Principal) (*domain.DocumentDownload, error)) {
	principal, err := h.authenticate(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dl, err := get(principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Имя вложения строится из номера версии и проходит санитизацию —
	// клиентский идентификатор в заголовок не попадает
	disposition := fmt.Sprintf("attachment; filename=%q", service.AttachmentFilename(dl.Document))

	w.Header().Set("Content-Type", dl.Document.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.Header().Set("Content-Disposition", disposition)
	w.Write(dl.Data)
}

// List возвращает только идентифицирующие поля видимых документов.
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	items, err := h.documents.List(r.Context(), principal)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// Replace перезаписывает содержимое документа, найденного по номеру версии.
func (h *DocumentHandler) Replace(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authenticate(r); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeServiceError(w, service.ErrMissingContent)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	doc, err := h.documents.Replace(r.Context(), chi.URLParam(r, "version"), domain.DocumentReplace{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Data:     data,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "document replaced",
		ID:      doc.ID,
		Version: doc.Version,
	})
}

// Delete удаляет документ по идентификатору или номеру версии (только adm).
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := h.authenticate(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.documents.Delete(r.Context(), chi.URLParam(r, "id"), principal); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "document deleted"})
}

func (h *DocumentHandler) authenticate(r *http.Request) (*domain.Principal, error) {
	token, err := auth.BearerToken(r)
	if err != nil {
		return nil, service.ErrInvalidToken
	}
	return h.sessions.Authenticate(r.Context(), token)
}
