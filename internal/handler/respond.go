package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"frotadocs/internal/service"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeServiceError отображает ошибки сервисного слоя в статусы ответа.
// Невидимый и отсутствующий документ приходят сюда одной и той же ошибкой.
// Все неопознанное — 500 с подробностью только в логе.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMissingID),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidCompany),
		errors.Is(err, service.ErrMissingContent),
		errors.Is(err, service.ErrUnsupportedType),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrInvalidCredential),
		errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrDuplicateID),
		errors.Is(err, service.ErrDuplicateCredential):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
