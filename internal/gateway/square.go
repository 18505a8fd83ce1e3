package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/newrelic/go-agent/v3/newrelic"

	"paybot/internal/config"
	"paybot/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	productionBaseURL = "https://connect.squareup.com"
	sandboxBaseURL    = "https://connect.squareupsandbox.com"
	defaultAPIVersion = "2024-07-17"

	// maxResponseBytes bounds how much of a gateway response is read.
	maxResponseBytes = 1 << 20
)

type money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createPaymentRequest struct {
	SourceID       string `json:"source_id"`
	IdempotencyKey string `json:"idempotency_key"`
	AmountMoney    money  `json:"amount_money"`
	LocationID     string `json:"location_id,omitempty"`
}

type createPaymentResponse struct {
	Payment map[string]any `json:"payment"`
	Errors  []APIError     `json:"errors"`
}

// SquareClient charges tokenized card sources through the Square Payments API.
// It is safe for concurrent use.
type SquareClient struct {
	baseURL     string
	accessToken string
	apiVersion  string
	locationID  string
	client      *http.Client
}

// NewSquareClient creates a Square client. The transport is instrumented
// with New Relic external segments when a transaction is present in the
// request context.
func NewSquareClient(cfg config.SquareConfig, timeout time.Duration) *SquareClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = productionBaseURL
		if cfg.Environment == config.SquareSandbox {
			baseURL = sandboxBaseURL
		}
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &SquareClient{
		baseURL:     baseURL,
		accessToken: cfg.AccessToken,
		apiVersion:  apiVersion,
		locationID:  cfg.LocationID,
		client: &http.Client{
			Timeout:   timeout,
			Transport: newrelic.NewRoundTripper(transport),
		},
	}
}

// Charge creates a payment for req. A rejection by the gateway is returned
// as *DeclineError; transport and server failures wrap ErrUnavailable or
// ErrTimeout.
func (c *SquareClient) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.Payment, error) {
	body, err := json.Marshal(createPaymentRequest{
		SourceID:       req.SourceToken,
		IdempotencyKey: req.IdempotencyKey,
		AmountMoney:    money{Amount: req.Amount, Currency: req.Currency},
		LocationID:     c.locationID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Square-Version", c.apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: reading response: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: received status code %d", ErrUnavailable, resp.StatusCode)
	}

	var decoded createPaymentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response with status %d: %v", ErrUnavailable, resp.StatusCode, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && decoded.Payment != nil {
		return &domain.Payment{Record: decoded.Payment}, nil
	}
	if resp.StatusCode >= 400 {
		if upstreamFault(resp.StatusCode, decoded.Errors) {
			return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, strings.Join(categories(decoded.Errors), ","))
		}
		return nil, &DeclineError{StatusCode: resp.StatusCode, Errors: decoded.Errors}
	}
	return nil, fmt.Errorf("%w: unexpected response with status %d", ErrUnavailable, resp.StatusCode)
}

// upstreamFault reports whether a 4xx response is the service's own
// credential, routing or throttling failure rather than a rejected charge.
func upstreamFault(status int, errs []APIError) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
		return true
	}
	for _, apiErr := range errs {
		switch apiErr.Category {
		case "AUTHENTICATION_ERROR", "RATE_LIMIT_ERROR", "API_ERROR":
			return true
		}
	}
	return false
}

func categories(errs []APIError) []string {
	out := make([]string, 0, len(errs))
	for _, apiErr := range errs {
		out = append(out, apiErr.Category)
	}
	return out
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
