package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"paybot/internal/config"
	"paybot/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) *SquareClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSquareClient(config.SquareConfig{
		AccessToken: "sq-token",
		Environment: config.SquareSandbox,
		LocationID:  "LOC-1",
		BaseURL:     srv.URL,
	}, timeout)
}

func testCharge() domain.ChargeRequest {
	return domain.ChargeRequest{
		SourceToken:    "cnon:card-nonce-ok",
		Amount:         150,
		Currency:       domain.CurrencyUSD,
		IdempotencyKey: "0123456789abcdef0123456789abcdef",
	}
}

func TestCharge_Success(t *testing.T) {
	var gotBody createPaymentRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/payments" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sq-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.Header.Get("Square-Version") == "" {
			t.Error("expected Square-Version header")
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"payment":{"id":"pay-1","status":"COMPLETED","amount_money":{"amount":150,"currency":"USD"}}}`))
	}, time.Second)

	payment, err := client.Charge(context.Background(), testCharge())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if payment.ID() != "pay-1" {
		t.Errorf("expected payment id pay-1, got %q", payment.ID())
	}
	if payment.Status() != "COMPLETED" {
		t.Errorf("expected status COMPLETED, got %q", payment.Status())
	}
	amount, currency, ok := payment.Amount()
	if !ok || amount != 150 || currency != "USD" {
		t.Errorf("expected 150 USD, got %d %s (ok=%v)", amount, currency, ok)
	}

	if gotBody.SourceID != "cnon:card-nonce-ok" {
		t.Errorf("expected source id forwarded, got %q", gotBody.SourceID)
	}
	if gotBody.AmountMoney.Amount != 150 || gotBody.AmountMoney.Currency != "USD" {
		t.Errorf("unexpected amount money %+v", gotBody.AmountMoney)
	}
	if gotBody.IdempotencyKey != "0123456789abcdef0123456789abcdef" {
		t.Errorf("expected idempotency key forwarded, got %q", gotBody.IdempotencyKey)
	}
	if gotBody.LocationID != "LOC-1" {
		t.Errorf("expected location id LOC-1, got %q", gotBody.LocationID)
	}
}

func TestCharge_DeclineReturnsDeclineError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"errors":[{"category":"PAYMENT_METHOD_ERROR","code":"CARD_DECLINED","detail":"Authorization error: 'GENERIC_DECLINE'"}]}`))
	}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())

	var decline *DeclineError
	if !errors.As(err, &decline) {
		t.Fatalf("expected DeclineError, got %v", err)
	}
	if decline.StatusCode != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", decline.StatusCode)
	}
	if codes := decline.Codes(); len(codes) != 1 || codes[0] != "CARD_DECLINED" {
		t.Errorf("unexpected codes %v", codes)
	}
}

func TestCharge_ServerErrorIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCharge_MalformedBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCharge_ConnectionRefusedIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewSquareClient(config.SquareConfig{AccessToken: "sq-token", BaseURL: url}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCharge_DeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 5*time.Second)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Charge(ctx, testCharge())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestNewSquareClient_SelectsBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SquareConfig
		want string
	}{
		{"production", config.SquareConfig{Environment: config.SquareProduction}, productionBaseURL},
		{"sandbox", config.SquareConfig{Environment: config.SquareSandbox}, sandboxBaseURL},
		{"override", config.SquareConfig{Environment: config.SquareSandbox, BaseURL: "http://local"}, "http://local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSquareClient(tt.cfg, time.Second)
			if c.baseURL != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c.baseURL)
			}
		})
	}
}

func TestCharge_UpstreamFaultsAreUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"revoked token", http.StatusUnauthorized, `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"UNAUTHORIZED"}]}`},
		{"forbidden", http.StatusForbidden, `{"errors":[{"category":"AUTHENTICATION_ERROR","code":"FORBIDDEN"}]}`},
		{"rate limited", http.StatusTooManyRequests, `{"errors":[{"category":"RATE_LIMIT_ERROR","code":"RATE_LIMITED"}]}`},
		{"wrong base url", http.StatusNotFound, `{"errors":[]}`},
		{"api error category", http.StatusBadRequest, `{"errors":[{"category":"API_ERROR","code":"INTERNAL_SERVER_ERROR"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, time.Second)

			_, err := client.Charge(context.Background(), testCharge())

			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
			var decline *DeclineError
			if errors.As(err, &decline) {
				t.Errorf("expected no DeclineError, got %v", decline)
			}
		})
	}
}

func TestCharge_ClientErrorWithHTMLBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<html><body>404 page not found</body></html>`))
	}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCharge_ValidationRejectionIsDecline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"category":"INVALID_REQUEST_ERROR","code":"INVALID_CARD_DATA"}]}`))
	}, time.Second)

	_, err := client.Charge(context.Background(), testCharge())

	var decline *DeclineError
	if !errors.As(err, &decline) {
		t.Fatalf("expected DeclineError, got %v", err)
	}
}
