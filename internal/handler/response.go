package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"medintake/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// RespondErrorWithDetails sends an error response carrying a structured
// details payload alongside the code and message.
func RespondErrorWithDetails(c *gin.Context, status int, code, msg string, details any) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg, Details: details},
	})
}

// MapKind translates an error taxonomy kind to an HTTP status and error code.
func MapKind(kind string) (status int, code string) {
	switch kind {
	case domain.KindUnsupportedFormat:
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT"
	case domain.KindCorruptDocument:
		return http.StatusBadRequest, "CORRUPT_DOCUMENT"
	case domain.KindUnknownProvider:
		return http.StatusBadRequest, "UNKNOWN_PROVIDER"
	case domain.KindProviderUnavailable:
		return http.StatusServiceUnavailable, "PROVIDER_UNAVAILABLE"
	case domain.KindProviderTimeout:
		return http.StatusGatewayTimeout, "PROVIDER_TIMEOUT"
	case domain.KindProviderTransport:
		return http.StatusBadGateway, "PROVIDER_TRANSPORT_ERROR"
	case domain.KindMalformedLLMOutput:
		return http.StatusBadGateway, "MALFORMED_LLM_OUTPUT"
	case domain.KindCanceled:
		return http.StatusRequestTimeout, "REQUEST_CANCELED"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
