package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"paybot/internal/config"
)

// TelegramNotifier delivers text messages to a Telegram chat or channel.
type TelegramNotifier struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a notifier and verifies the bot token against
// the Bot API, so an invalid token is reported at startup.
func NewTelegramNotifier(cfg config.TelegramConfig, timeout time.Duration) (*TelegramNotifier, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot}, nil
}

// BotName returns the bot's username as reported by the Bot API.
func (n *TelegramNotifier) BotName() string {
	return n.bot.Self.UserName
}

// Notify sends text to channelID, which is either a numeric chat id or an
// "@channelusername".
func (n *TelegramNotifier) Notify(ctx context.Context, channelID, text string) error {
	msg, err := newMessage(channelID, text)
	if err != nil {
		return err
	}

	// The Bot API client takes no context; the send is bounded by the
	// HTTP client timeout and abandoned early if ctx ends first.
	done := make(chan error, 1)
	go func() {
		_, sendErr := n.bot.Send(msg)
		done <- sendErr
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send message to %s: %w", channelID, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send message to %s: %w", channelID, ctx.Err())
	}
}

func newMessage(channelID, text string) (tgbotapi.MessageConfig, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return tgbotapi.MessageConfig{}, fmt.Errorf("empty channel id")
	}
	if chatID, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return tgbotapi.NewMessage(chatID, text), nil
	}
	if !strings.HasPrefix(channelID, "@") {
		channelID = "@" + channelID
	}
	return tgbotapi.NewMessageToChannel(channelID, text), nil
}
