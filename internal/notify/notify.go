package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/interfaces"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/types"
)

// ErrDisabled is returned by the noop notifier so callers can tell "nothing
// configured" apart from a delivery failure.
var ErrDisabled = errors.New("notify: no notifier configured")

// Noop is the stand-in when no delivery channel is configured.
type Noop struct{}

func (Noop) OnNewArticle(context.Context, *types.Article) error { return ErrDisabled }

// Telegram posts new articles to a channel through the Bot API. It gets its
// own rate-limited client instance so its throttle never serializes against
// the price or feed upstreams.
type Telegram struct {
	client *api.Client
	chatID string
}

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		client: api.NewClient(
			api.WithBaseURL("https://api.telegram.org/bot"+botToken),
			api.WithTimeout(10*time.Second),
			api.WithMinInterval(1*time.Second),
		),
		chatID: chatID,
	}
}

// OnNewArticle sends a headline message. Errors bubble up to the caller,
// which treats delivery as best-effort.
func (t *Telegram) OnNewArticle(ctx context.Context, a *types.Article) error {
	text := fmt.Sprintf("*%s*\n\n%s\n\n[Read more](%s)", a.Title, a.Summary, a.SourceURL)

	params := url.Values{}
	params.Set("chat_id", t.chatID)
	params.Set("text", text)
	params.Set("parse_mode", "Markdown")

	if _, err := t.client.GetJSON(ctx, "/sendMessage", params); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// FromEnv picks the notifier implied by the environment: Telegram when both
// TELEGRAM_BOT_TOKEN and TELEGRAM_CHANNEL_ID are set and the config enables
// it, otherwise the noop.
func FromEnv(ctx context.Context, telegramEnabled bool) interfaces.Notifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	chatID := os.Getenv("TELEGRAM_CHANNEL_ID")

	if telegramEnabled && token != "" && chatID != "" {
		logger.Info(ctx, "Telegram notifications enabled", "chat_id", chatID)
		return NewTelegram(token, chatID)
	}
	logger.Info(ctx, "No article notifier configured")
	return Noop{}
}
