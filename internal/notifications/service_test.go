package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"

	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/transport"
)

type recordingChat struct {
	transport.Client

	mu   sync.Mutex
	sent []transport.TextMessage
	fail bool
}

func (r *recordingChat) SendMessage(_ context.Context, msg transport.TextMessage) (transport.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return transport.Message{}, errors.New("telegram unavailable")
	}
	r.sent = append(r.sent, msg)
	return transport.Message{MessageID: len(r.sent)}, nil
}

func ownerConfig(chatID int64) *config.Config {
	cfg := config.Default()
	cfg.Telegram.OwnerChatID = chatID
	return &cfg
}

func TestNewServiceNoopWithoutOwner(t *testing.T) {
	svc := NewService(ownerConfig(0), &recordingChat{}, logging.NewNop())
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.Started(context.Background(), "https://x/webhook/t"); err != nil {
		t.Fatalf("noop Started: %v", err)
	}
}

func TestStartedIncludesWebhookTarget(t *testing.T) {
	chat := &recordingChat{}
	svc := NewService(ownerConfig(777), chat, logging.NewNop())

	if err := svc.Started(context.Background(), "https://bot.example.com/webhook/123:abc"); err != nil {
		t.Fatalf("Started: %v", err)
	}
	if len(chat.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(chat.sent))
	}
	msg := chat.sent[0]
	if msg.ChatID != 777 {
		t.Fatalf("expected owner chat 777, got %d", msg.ChatID)
	}
	want := "✅ Bot started. Webhook set: https://bot.example.com/webhook/123:abc"
	if msg.Text != want {
		t.Fatalf("message = %q, want %q", msg.Text, want)
	}
}

func TestStartedWithoutWebhook(t *testing.T) {
	chat := &recordingChat{}
	svc := NewService(ownerConfig(777), chat, logging.NewNop())

	if err := svc.Started(context.Background(), ""); err != nil {
		t.Fatalf("Started: %v", err)
	}
	if chat.sent[0].Text != "✅ Bot started." {
		t.Fatalf("message = %q", chat.sent[0].Text)
	}
}

func TestAlertPrefixesMessage(t *testing.T) {
	chat := &recordingChat{}
	svc := NewService(ownerConfig(777), chat, logging.NewNop())

	if err := svc.Alert(context.Background(), "webhook registration failed"); err != nil {
		t.Fatalf("Alert: %v", err)
	}
	if chat.sent[0].Text != "⚠️ webhook registration failed" {
		t.Fatalf("message = %q", chat.sent[0].Text)
	}
	if err := svc.Alert(context.Background(), "  "); err != nil {
		t.Fatalf("blank Alert should be a no-op: %v", err)
	}
	if len(chat.sent) != 1 {
		t.Fatal("blank alert should not send")
	}
}

func TestSendFailureSurfaced(t *testing.T) {
	chat := &recordingChat{fail: true}
	svc := NewService(ownerConfig(777), chat, logging.NewNop())

	if err := svc.Started(context.Background(), ""); err == nil {
		t.Fatal("expected error from failing transport")
	}
}
