package notifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"paybot/internal/config"
)

const testToken = "123:abc"

// fakeBotAPI is a minimal Telegram Bot API.
type fakeBotAPI struct {
	mu       sync.Mutex
	chatIDs  []string
	texts    []string
	failSend bool
	block    chan struct{}
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/bot" + testToken + "/getMe":
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Pay","username":"pay_bot"}}`))
	case "/bot" + testToken + "/sendMessage":
		if f.block != nil {
			<-f.block
		}
		_ = r.ParseForm()
		f.mu.Lock()
		f.chatIDs = append(f.chatIDs, r.Form.Get("chat_id"))
		f.texts = append(f.texts, r.Form.Get("text"))
		fail := f.failSend
		f.mu.Unlock()
		if fail {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":-100,"type":"channel"}}}`))
	default:
		_, _ = w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}
}

func newTestNotifier(t *testing.T, api *fakeBotAPI, token string) (*TelegramNotifier, error) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewTelegramNotifier(config.TelegramConfig{
		BotToken:    token,
		APIEndpoint: srv.URL + "/bot%s/%s",
	}, time.Second)
}

func TestNewTelegramNotifier_VerifiesToken(t *testing.T) {
	n, err := newTestNotifier(t, &fakeBotAPI{}, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.BotName() != "pay_bot" {
		t.Errorf("expected bot name pay_bot, got %q", n.BotName())
	}
}

func TestNewTelegramNotifier_RejectsBadToken(t *testing.T) {
	if _, err := newTestNotifier(t, &fakeBotAPI{}, "bad-token"); err == nil {
		t.Fatal("expected error for bad token")
	}
}

func TestNotify_SendsToChannelUsername(t *testing.T) {
	api := &fakeBotAPI{}
	n, err := newTestNotifier(t, api, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Notify(context.Background(), "payments", "Transaction Approved: pay-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.texts) != 1 {
		t.Fatalf("expected 1 message, got %d", len(api.texts))
	}
	if api.chatIDs[0] != "@payments" {
		t.Errorf("expected chat id @payments, got %q", api.chatIDs[0])
	}
	if api.texts[0] != "Transaction Approved: pay-1" {
		t.Errorf("unexpected text %q", api.texts[0])
	}
}

func TestNotify_SendsToNumericChat(t *testing.T) {
	api := &fakeBotAPI{}
	n, err := newTestNotifier(t, api, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Notify(context.Background(), "-1001234", "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	if api.chatIDs[0] != "-1001234" {
		t.Errorf("expected chat id -1001234, got %q", api.chatIDs[0])
	}
}

func TestNotify_ReturnsAPIError(t *testing.T) {
	api := &fakeBotAPI{failSend: true}
	n, err := newTestNotifier(t, api, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Notify(context.Background(), "@payments", "hi"); err == nil {
		t.Fatal("expected error from failed send")
	}
}

func TestNotify_HonorsContext(t *testing.T) {
	api := &fakeBotAPI{block: make(chan struct{})}
	n, err := newTestNotifier(t, api, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer close(api.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = n.Notify(ctx, "@payments", "hi")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNotify_RejectsEmptyChannel(t *testing.T) {
	api := &fakeBotAPI{}
	n, err := newTestNotifier(t, api, testToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Notify(context.Background(), " ", "hi"); err == nil {
		t.Fatal("expected error for empty channel")
	}
}
