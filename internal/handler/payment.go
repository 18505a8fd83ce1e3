package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paybot/internal/domain"
	"paybot/internal/service"
)

// PaymentProcessor processes one payment request.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, req service.ProcessPaymentRequest) (*domain.Payment, error)
}

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService PaymentProcessor
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService PaymentProcessor) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ProcessPaymentRequest is the HTTP request body for processing a payment.
type ProcessPaymentRequest struct {
	Nonce  string `json:"nonce"`
	Amount *int64 `json:"amount"`
}

// PaymentResponse is the HTTP response for a successful payment.
type PaymentResponse struct {
	Status      string         `json:"status"`
	Transaction map[string]any `json:"transaction"`
}

// ProcessPayment handles POST /process-payment
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Status: statusError})
		return
	}

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), service.ProcessPaymentRequest{
		SourceToken: req.Nonce,
		Amount:      req.Amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		Status:      statusSuccess,
		Transaction: payment.Record,
	})
}
