// Package notifications delivers operational events to the owner chat.
//
// The default implementation sends plain Telegram messages to the configured
// owner_chat_id and gracefully degrades to a no-op when no owner is set.
// Failures are best effort; an unreachable owner never blocks the pipeline.
package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/transport"
)

// Service defines the operational notification surface.
type Service interface {
	// Started announces a successful daemon start, including the webhook
	// target when one was registered.
	Started(ctx context.Context, webhookTarget string) error
	// Alert reports an operational problem that needs the owner's attention.
	Alert(ctx context.Context, message string) error
}

// NewService builds an owner-chat notifier. When no owner chat is configured
// a noop implementation is returned.
func NewService(cfg *config.Config, chat transport.Client, logger *slog.Logger) Service {
	if cfg == nil || cfg.Telegram.OwnerChatID == 0 || chat == nil {
		return noopService{}
	}
	return &ownerService{
		chatID: cfg.Telegram.OwnerChatID,
		chat:   chat,
		logger: logging.NewComponentLogger(logger, "notifications"),
	}
}

type ownerService struct {
	chatID int64
	chat   transport.Client
	logger *slog.Logger
}

func (s *ownerService) Started(ctx context.Context, webhookTarget string) error {
	text := "✅ Bot started."
	if strings.TrimSpace(webhookTarget) != "" {
		text = fmt.Sprintf("✅ Bot started. Webhook set: %s", webhookTarget)
	}
	return s.send(ctx, text)
}

func (s *ownerService) Alert(ctx context.Context, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	return s.send(ctx, "⚠️ "+message)
}

func (s *ownerService) send(ctx context.Context, text string) error {
	_, err := s.chat.SendMessage(ctx, transport.TextMessage{
		ChatID: s.chatID,
		Text:   text,
	})
	if err != nil {
		s.logger.Warn("owner notification failed",
			logging.Int64(logging.FieldChatID, s.chatID),
			logging.Error(err))
		return err
	}
	return nil
}

type noopService struct{}

func (noopService) Started(context.Context, string) error { return nil }
func (noopService) Alert(context.Context, string) error   { return nil }
