package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"paybot/internal/domain"
)

// ──────────────────────────────────────────────
// MOCK GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock payment gateway.
type MockGateway struct {
	mu       sync.Mutex
	requests []domain.ChargeRequest

	// Control behavior
	Record    map[string]any
	FailError error
	// EmptyResult makes Charge return neither a payment nor an error.
	EmptyResult bool

	// Counters
	ChargeCallCount int32
}

// NewMockGateway creates a gateway that approves every charge.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.FailError != nil {
		return nil, m.FailError
	}
	if m.EmptyResult {
		return nil, nil
	}
	record := m.Record
	if record == nil {
		record = map[string]any{
			"id":     "pay-" + req.IdempotencyKey[:8],
			"status": "COMPLETED",
			"amount_money": map[string]any{
				"amount":   float64(req.Amount),
				"currency": req.Currency,
			},
		}
	}
	return &domain.Payment{Record: record}, nil
}

// SetFailure configures the gateway to fail every charge with err.
func (m *MockGateway) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailError = err
}

// Requests returns the charge requests received so far.
func (m *MockGateway) Requests() []domain.ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ChargeRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Calls returns the number of charge calls.
func (m *MockGateway) Calls() int {
	return int(atomic.LoadInt32(&m.ChargeCallCount))
}

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// SentMessage is a message captured by MockNotifier.
type SentMessage struct {
	ChannelID string
	Text      string
}

// MockNotifier is a mock messaging-bot client.
type MockNotifier struct {
	mu       sync.Mutex
	messages []SentMessage

	// Error injection
	NotifyError error

	// Counters
	NotifyCallCount int32
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, channelID, text string) error {
	atomic.AddInt32(&m.NotifyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, SentMessage{ChannelID: channelID, Text: text})
	return m.NotifyError
}

// Messages returns the messages received so far.
func (m *MockNotifier) Messages() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.messages))
	copy(out, m.messages)
	return out
}

// Calls returns the number of notify calls.
func (m *MockNotifier) Calls() int {
	return int(atomic.LoadInt32(&m.NotifyCallCount))
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockNotifierDown = errors.New("mock: telegram unreachable")
	ErrMockUnexpected   = errors.New("mock: unexpected failure")
)
