package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"paybot/internal/domain"
	"paybot/internal/logging"
	"paybot/internal/metrics"
)

// Notifier delivers a text message to a channel.
type Notifier interface {
	Notify(ctx context.Context, channelID, text string) error
}

// NotificationService sends payment confirmations to the configured channel.
// Delivery failures are logged and counted, never returned.
type NotificationService struct {
	notifier  Notifier
	channelID string
	metrics   *metrics.Metrics
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notifier Notifier, channelID string, m *metrics.Metrics) *NotificationService {
	return &NotificationService{
		notifier:  notifier,
		channelID: channelID,
		metrics:   m,
	}
}

// NotifyPaymentApproved sends the confirmation for a successful charge and
// reports whether it was delivered.
func (s *NotificationService) NotifyPaymentApproved(ctx context.Context, payment *domain.Payment) bool {
	text := FormatApproval(payment)
	logger := logging.FromContext(ctx).With(zap.String("channel", s.channelID), zap.String("payment_id", payment.ID()))

	if err := s.notifier.Notify(ctx, s.channelID, text); err != nil {
		s.metrics.ObserveNotification(metrics.NotifyFailed)
		logger.Error("failed to send payment confirmation", zap.Error(err))
		return false
	}

	s.metrics.ObserveNotification(metrics.NotifySent)
	logger.Info("sent payment confirmation", zap.String("text", text))
	return true
}

// FormatApproval renders the confirmation message for payment.
func FormatApproval(payment *domain.Payment) string {
	parts := make([]string, 0, 3)
	if id := payment.ID(); id != "" {
		parts = append(parts, "payment "+id)
	}
	if amount, currency, ok := payment.Amount(); ok {
		parts = append(parts, fmt.Sprintf("%s %s", decimal.New(amount, -2).StringFixed(2), currency))
	}
	if status := payment.Status(); status != "" {
		parts = append(parts, "status "+status)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Transaction Approved: %v", payment.Record)
	}
	return "Transaction Approved: " + strings.Join(parts, ", ")
}
