package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/resolver"
	"telefetch/internal/services"
	"telefetch/internal/transport"
)

// PreferenceStore persists per-user quality choices.
type PreferenceStore interface {
	Preference(ctx context.Context, userID int64) (media.Tier, error)
	SetPreference(ctx context.Context, userID int64, tier media.Tier) error
}

// Bot routes chat updates: commands are answered directly, YouTube links
// become queue admissions, everything else is dropped.
type Bot struct {
	cfg    *config.Config
	logger *slog.Logger
	queue  *pipeline.Queue
	prefs  PreferenceStore
	chat   transport.Client
}

// New constructs the update router.
func New(cfg *config.Config, logger *slog.Logger, queue *pipeline.Queue, prefs PreferenceStore, chat transport.Client) *Bot {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Bot{
		cfg:    cfg,
		logger: logger.With(logging.String(logging.FieldComponent, "bot")),
		queue:  queue,
		prefs:  prefs,
		chat:   chat,
	}
}

// HandleUpdate processes one webhook update. It satisfies
// transport.UpdateFunc and never blocks on pipeline work; admission is the
// only queue interaction and returns immediately.
func (b *Bot) HandleUpdate(ctx context.Context, update transport.Update) {
	message := update.Message
	if message == nil || message.From == nil || message.From.IsBot {
		return
	}
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, message, text)
		return
	}
	url, tierArg, _ := strings.Cut(text, " ")
	if !resolver.IsSupported(url) {
		// Only YouTube links are acted on; everything else stays quiet.
		b.logger.Debug("ignored non-youtube message",
			logging.Int64(logging.FieldUserID, message.From.ID),
		)
		return
	}
	b.enqueue(ctx, message, url, strings.TrimSpace(tierArg))
}

func (b *Bot) enqueue(ctx context.Context, message *transport.Message, url, tierArg string) {
	logger := logging.WithContext(ctx, b.logger)
	userID := message.From.ID

	tier, explicit := media.ParseTier(tierArg)
	if !explicit {
		var err error
		tier, err = b.prefs.Preference(ctx, userID)
		if err != nil {
			// The read already fell back to the default tier; the download
			// continues either way.
			logger.Warn("preference read failed",
				logging.Int64(logging.FieldUserID, userID),
				logging.Error(err),
			)
		}
	}

	job, err := b.queue.Admit(pipeline.Request{
		UserID:    userID,
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		URL:       url,
		Requested: tier,
	})
	if err != nil {
		b.replyToAdmissionFailure(ctx, message, err)
		return
	}
	logger.Info("job admitted",
		logging.String(logging.FieldJobID, job.ID),
		logging.Int64(logging.FieldUserID, userID),
		logging.String("tier", tier.String()),
		logging.Int("position", job.QueuePosition),
	)

	text := "📥 Preparing to download..."
	if job.QueuePosition > 1 {
		text = fmt.Sprintf("⏳ Queued (position %d). It will start automatically.", job.QueuePosition)
	}
	status := b.reply(ctx, message, text)
	if status.MessageID != 0 {
		if err := b.queue.SetStatusMessage(job.ID, status.MessageID); err != nil {
			logger.Warn("status message tracking failed", logging.Error(err))
		}
	}
}

func (b *Bot) replyToAdmissionFailure(ctx context.Context, message *transport.Message, err error) {
	logger := logging.WithContext(ctx, b.logger)
	switch {
	case errors.Is(err, services.ErrBusy):
		b.reply(ctx, message, "⏳ You already have a download running. Finish or wait for the current one first.")
	case errors.Is(err, pipeline.ErrQueueClosed):
		b.reply(ctx, message, "🛑 The downloader is shutting down. Try again in a minute.")
	default:
		logger.Warn("admission failed", logging.Error(err))
		b.reply(ctx, message, "❌ That link could not be accepted.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *transport.Message, text string) {
	command, args, _ := strings.Cut(text, " ")
	if at := strings.IndexByte(command, '@'); at > 0 {
		command = command[:at]
	}
	switch command {
	case "/start", "/help":
		b.reply(ctx, message, usageText())
	case "/quality":
		b.handleQuality(ctx, message, strings.TrimSpace(args))
	default:
		b.logger.Debug("unknown command", logging.String("command", command))
	}
}

func (b *Bot) handleQuality(ctx context.Context, message *transport.Message, arg string) {
	logger := logging.WithContext(ctx, b.logger)
	userID := message.From.ID

	if arg == "" {
		current, err := b.prefs.Preference(ctx, userID)
		if err != nil {
			logger.Warn("preference read failed", logging.Error(err))
		}
		b.reply(ctx, message, fmt.Sprintf("Current quality: %s.\nAvailable: %s.\nSend /quality <tier> to change it.",
			current, tierList()))
		return
	}

	tier, ok := media.ParseTier(arg)
	if !ok {
		b.reply(ctx, message, fmt.Sprintf("Unknown quality %q. Available: %s.", arg, tierList()))
		return
	}
	if err := b.prefs.SetPreference(ctx, userID, tier); err != nil {
		logger.Error("preference write failed",
			logging.Int64(logging.FieldUserID, userID),
			logging.Error(err),
			logging.Alert("preference-store"),
		)
		b.reply(ctx, message, "⚠️ Could not save your preference. Try again later.")
		return
	}
	b.reply(ctx, message, fmt.Sprintf("✅ Quality preference saved: %s.", tier))
}

func (b *Bot) reply(ctx context.Context, message *transport.Message, text string) transport.Message {
	if b.chat == nil {
		return transport.Message{}
	}
	sent, err := b.chat.SendMessage(ctx, transport.TextMessage{
		ChatID:  message.Chat.ID,
		Text:    text,
		ReplyTo: message.MessageID,
	})
	if err != nil {
		logging.WithContext(ctx, b.logger).Warn("chat reply failed", logging.Error(err))
		return transport.Message{}
	}
	return sent
}

func usageText() string {
	return "Send me a YouTube link and I will fetch the video for you.\n\n" +
		"Playlists work too: every entry is delivered one by one.\n" +
		"One download at a time per person; extra links wait their turn.\n\n" +
		"Commands:\n" +
		"/quality - show or change your preferred quality\n" +
		"/help - this message"
}

func tierList() string {
	tiers := media.AllTiers()
	names := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		names = append(names, tier.String())
	}
	return strings.Join(names, ", ")
}
