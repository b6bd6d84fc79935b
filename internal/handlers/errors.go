package handlers

import (
	"errors"
	"net/http"

	"tareas/internal/logger"
	"tareas/internal/service"

	"go.uber.org/zap"
)

const (
	codeInternal         = "INTERNAL_ERROR"
	codeUnsupportedMedia = "UNSUPPORTED_MEDIA_TYPE"
	msgInternal          = "Error interno del servidor"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Error de negocio",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	payload := []Payload{
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
	}
	if len(businessErr.Details) > 0 {
		payload = append(payload, toPayload("details", businessErr.Details))
	}
	responseWithJSON(w, statusCode, payload...)
	return true
}

// handleServiceError responde 400/404 a los errores de negocio y 500 al resto.
// La causa de un 500 sólo se registra, nunca se devuelve.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Error en Service", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, codeInternal, msgInternal)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
