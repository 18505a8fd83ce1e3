package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"

	"paybot/internal/domain"
	"paybot/internal/gateway"
	"paybot/internal/logging"
	"paybot/internal/metrics"
)

// Gateway is the interface for a payment gateway.
type Gateway interface {
	Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error)
}

// PaymentService charges payment sources and announces successful charges.
// It holds no per-request state and is safe for concurrent use.
type PaymentService struct {
	gateway       Gateway
	notifications *NotificationService
	metrics       *metrics.Metrics

	defaultAmount  int64
	gatewayTimeout time.Duration
	notifyTimeout  time.Duration
	newKey         func() string
}

// PaymentOptions configures a PaymentService.
type PaymentOptions struct {
	// DefaultAmount is charged when a request has no amount. Zero makes the amount required.
	DefaultAmount  int64
	GatewayTimeout time.Duration
	NotifyTimeout  time.Duration
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(gw Gateway, notifications *NotificationService, m *metrics.Metrics, opts PaymentOptions) *PaymentService {
	return &PaymentService{
		gateway:        gw,
		notifications:  notifications,
		metrics:        m,
		defaultAmount:  opts.DefaultAmount,
		gatewayTimeout: opts.GatewayTimeout,
		notifyTimeout:  opts.NotifyTimeout,
		newKey:         domain.NewIdempotencyKey,
	}
}

// ProcessPaymentRequest contains the parameters for processing a payment.
type ProcessPaymentRequest struct {
	SourceToken string
	// Amount in minor units; nil means use the configured default.
	Amount *int64
}

// ProcessPayment charges the source once and, on success, sends one
// confirmation. A failed confirmation does not fail the payment.
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest) (*domain.Payment, error) {
	logger := logging.FromContext(ctx)
	txn := newrelic.FromContext(ctx)

	charge, err := s.buildCharge(req)
	if err != nil {
		s.metrics.ObserveCharge(metrics.OutcomeInvalid, 0)
		txn.AddAttribute("charge.outcome", metrics.OutcomeInvalid)
		logger.Info("rejected payment request", zap.Error(err))
		return nil, err
	}
	logger = logger.With(zap.String("idempotency_key", charge.IdempotencyKey), zap.Int64("amount", charge.Amount))

	chargeCtx := ctx
	if s.gatewayTimeout > 0 {
		var cancel context.CancelFunc
		chargeCtx, cancel = context.WithTimeout(ctx, s.gatewayTimeout)
		defer cancel()
	}

	start := time.Now()
	payment, err := s.gateway.Charge(chargeCtx, charge)
	elapsed := time.Since(start)
	if err == nil && payment == nil {
		err = gateway.ErrUnavailable
	}
	err = normalizeGatewayError(err)

	outcome := chargeOutcome(err)
	s.metrics.ObserveCharge(outcome, elapsed)
	txn.AddAttribute("charge.outcome", outcome)

	if err != nil {
		var decline *gateway.DeclineError
		if errors.As(err, &decline) {
			logger.Warn("payment declined", zap.Int("gateway_status", decline.StatusCode), zap.Strings("codes", decline.Codes()))
		} else {
			logger.Error("payment gateway error", zap.String("outcome", outcome), zap.Error(err))
		}
		return nil, err
	}

	logger.Info("payment successful", zap.String("payment_id", payment.ID()), zap.Duration("elapsed", elapsed))

	notifyCtx := context.WithoutCancel(ctx)
	if s.notifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
	}
	s.notifications.NotifyPaymentApproved(notifyCtx, payment)

	return payment, nil
}

func (s *PaymentService) buildCharge(req ProcessPaymentRequest) (domain.ChargeRequest, error) {
	token := strings.TrimSpace(req.SourceToken)
	if token == "" {
		return domain.ChargeRequest{}, ErrMissingSourceToken
	}

	amount := s.defaultAmount
	if req.Amount != nil {
		amount = *req.Amount
	}
	if amount <= 0 {
		return domain.ChargeRequest{}, ErrInvalidPaymentAmount
	}

	return domain.ChargeRequest{
		SourceToken:    token,
		Amount:         amount,
		Currency:       domain.CurrencyUSD,
		IdempotencyKey: s.newKey(),
	}, nil
}

func chargeOutcome(err error) string {
	var decline *gateway.DeclineError
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &decline):
		return metrics.OutcomeDeclined
	case errors.Is(err, gateway.ErrTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeUnavailable
	}
}

// normalizeGatewayError makes every charge failure match DeclineError,
// gateway.ErrTimeout or gateway.ErrUnavailable.
func normalizeGatewayError(err error) error {
	var decline *gateway.DeclineError
	switch {
	case err == nil, errors.As(err, &decline), errors.Is(err, gateway.ErrTimeout), errors.Is(err, gateway.ErrUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", gateway.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", gateway.ErrUnavailable, err)
	}
}
