package http

import (
	"ShortLink-Backend/internal/repository"
	"ShortLink-Backend/internal/service"
	"ShortLink-Backend/pkg/validation"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// ErrorResponse структура ошибки
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, ErrorResponse{Error: message}, statusCode)
}

// writeServiceError maps domain errors to status codes. Unknown errors are logged and reported as 500.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, notFoundMessage string) {
	var verr *service.ValidationError
	var reqErr *validation.Error

	switch {
	case errors.As(err, &verr):
		writeError(w, verr.Message, http.StatusBadRequest)
	case errors.As(err, &reqErr):
		writeError(w, reqErr.Error(), http.StatusBadRequest)
	case errors.Is(err, repository.ErrLinkNotFound):
		writeError(w, notFoundMessage, http.StatusNotFound)
	case errors.Is(err, service.ErrExpired):
		writeError(w, "This link has expired", http.StatusGone)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}
