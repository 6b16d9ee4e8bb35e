package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"crypto-pulse/internal/api"
	"crypto-pulse/internal/logger"
	"crypto-pulse/internal/types"
)

func TestMain(m *testing.M) {
	_ = logger.InitWithConfig(logger.LogConfig{Level: "ERROR", Format: "text"})
	os.Exit(m.Run())
}

func TestNoopReturnsErrDisabled(t *testing.T) {
	err := Noop{}.OnNewArticle(context.Background(), &types.Article{Title: "x"})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}
}

func TestFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHANNEL_ID", "")
	if _, ok := FromEnv(ctx, true).(Noop); !ok {
		t.Error("Expected Noop without credentials")
	}

	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHANNEL_ID", "@chan")
	if _, ok := FromEnv(ctx, false).(Noop); !ok {
		t.Error("Expected Noop when telegram is disabled in config")
	}
	if _, ok := FromEnv(ctx, true).(*Telegram); !ok {
		t.Error("Expected Telegram notifier with credentials and config enabled")
	}
}

func TestTelegramSendsMessage(t *testing.T) {
	var gotChat, gotText, gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotChat = q.Get("chat_id")
		gotText = q.Get("text")
		gotMode = q.Get("parse_mode")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tg := &Telegram{
		client: api.NewClient(api.WithBaseURL(srv.URL), api.WithMinInterval(0)),
		chatID: "@chan",
	}
	a := &types.Article{
		Title:     "BTC rally",
		Summary:   "Markets move higher.",
		SourceURL: "https://example.com/btc",
	}

	if err := tg.OnNewArticle(context.Background(), a); err != nil {
		t.Fatalf("OnNewArticle failed: %v", err)
	}
	if gotChat != "@chan" {
		t.Errorf("Expected chat_id @chan, got %q", gotChat)
	}
	if gotMode != "Markdown" {
		t.Errorf("Expected Markdown parse mode, got %q", gotMode)
	}
	for _, want := range []string{"BTC rally", "Markets move higher.", "https://example.com/btc"} {
		if !strings.Contains(gotText, want) {
			t.Errorf("Expected message to contain %q, got %q", want, gotText)
		}
	}
}

func TestTelegramDeliveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := &Telegram{
		client: api.NewClient(api.WithBaseURL(srv.URL), api.WithMinInterval(0), api.WithMaxRetries(0)),
		chatID: "@chan",
	}

	if err := tg.OnNewArticle(context.Background(), &types.Article{Title: "x"}); err == nil {
		t.Error("Expected error on upstream failure")
	}
}
