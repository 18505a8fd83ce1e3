package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paybot/internal/gateway"
	"paybot/internal/service"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ErrorResponse is the body of every failed request. Gateway details are
// never included.
type ErrorResponse struct {
	Status string `json:"status"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(mapErrorToHTTPStatus(err), ErrorResponse{Status: statusError})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/gateway errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var decline *gateway.DeclineError
	switch {
	// Validation errors and gateway declines - Bad Request
	case errors.Is(err, service.ErrMissingSourceToken),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.As(err, &decline):
		return http.StatusBadRequest

	// Upstream failures
	case errors.Is(err, gateway.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
