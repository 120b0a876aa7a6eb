package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"habita/internal/domain"
	"habita/internal/middleware"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func RespondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, APIResponse{Success: false, Error: &APIError{Code: code, Message: message, Details: details}})
}

// HandleError translates domain errors into HTTP responses. Anything not
// in the map is a server fault: logged with the correlation id, answered
// with a generic message.
func HandleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "autenticación requerida", nil)
	case errors.Is(err, domain.ErrForbidden):
		RespondError(c, http.StatusForbidden, "FORBIDDEN", "no tiene acceso a esta categoría de reportes", nil)
	case errors.Is(err, domain.ErrUnsupportedReportType):
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_REPORT_TYPE", err.Error(), nil)
	case errors.Is(err, domain.ErrUnknownField):
		RespondError(c, http.StatusBadRequest, "UNKNOWN_FIELD", err.Error(), nil)
	case errors.Is(err, domain.ErrUnsupportedExportFormat):
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT", err.Error(), nil)
	case errors.Is(err, domain.ErrMissingExportCapability):
		RespondError(c, http.StatusNotImplemented, "MISSING_EXPORT_CAPABILITY", err.Error(), nil)
	case errors.Is(err, domain.ErrInvalidModelOutput):
		RespondError(c, http.StatusUnprocessableEntity, "INVALID_MODEL_OUTPUT", "el modelo no produjo una configuración válida", nil)
	case errors.Is(err, domain.ErrExternalService):
		RespondError(c, http.StatusBadGateway, "EXTERNAL_SERVICE_ERROR", "el servicio de generación no está disponible", nil)
	default:
		log.Printf("ERROR: %v request_id=%s", err, middleware.GetRequestID(c))
		RespondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "error interno del servidor", nil)
	}
}
