package service

import "errors"

var (
	// ErrMissingSourceToken is returned when the request carries no payment source token.
	ErrMissingSourceToken = errors.New("payment source token is required")

	// ErrInvalidPaymentAmount is returned when no positive amount is given and no default is configured.
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
)
