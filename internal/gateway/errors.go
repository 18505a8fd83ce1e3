package gateway

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable is returned when the gateway cannot be reached or
	// answers with a server-side failure.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrTimeout is returned when the charge call exceeds its deadline.
	ErrTimeout = errors.New("payment gateway timeout")
)

// APIError is a single error entry reported by the gateway.
type APIError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
	Field    string `json:"field,omitempty"`
}

// DeclineError is returned when the gateway explicitly rejects a charge.
type DeclineError struct {
	StatusCode int
	Errors     []APIError
}

func (e *DeclineError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("payment declined: status %d", e.StatusCode)
	}
	return fmt.Sprintf("payment declined: status %d: %s", e.StatusCode, strings.Join(e.Codes(), ","))
}

// Codes returns the gateway error codes in order.
func (e *DeclineError) Codes() []string {
	codes := make([]string, 0, len(e.Errors))
	for _, apiErr := range e.Errors {
		codes = append(codes, apiErr.Code)
	}
	return codes
}
