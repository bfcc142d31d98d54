package workflow

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/resolver"
	"telefetch/internal/services"
	"telefetch/internal/transport"
)

const signInNotice = "⚠️ This video requires YouTube sign-in. The operator must install cookies before it can be fetched."

func fetchingText(item media.Item) string {
	if item.BatchSize > 1 {
		return fmt.Sprintf("📥 (%d/%d) downloading...", item.Position, item.BatchSize)
	}
	return "📥 Downloading video..."
}

func convertingText(item media.Item) string {
	if item.BatchSize > 1 {
		return fmt.Sprintf("✨ (%d/%d) converting to fit the upload limit...", item.Position, item.BatchSize)
	}
	return "✨ Converting to fit the upload limit..."
}

func uploadingText(item media.Item) string {
	if item.BatchSize > 1 {
		return fmt.Sprintf("📤 (%d/%d) uploading...", item.Position, item.BatchSize)
	}
	return "📤 Uploading video..."
}

// editStatus rewrites the job's pinned progress message. Edit failures only
// cost the user a stale line, so they are never fatal.
func (m *Manager) editStatus(ctx context.Context, job pipeline.Job, text string) {
	if m.chat == nil || job.StatusMessageID == 0 {
		return
	}
	if err := m.chat.EditMessageText(ctx, job.ChatID, job.StatusMessageID, text); err != nil {
		logging.WithContext(ctx, m.logger).Debug("status edit failed", logging.Error(err))
	}
}

func (m *Manager) deleteStatus(ctx context.Context, job pipeline.Job) {
	if m.chat == nil || job.StatusMessageID == 0 {
		return
	}
	if err := m.chat.DeleteMessage(ctx, job.ChatID, job.StatusMessageID); err != nil {
		logging.WithContext(ctx, m.logger).Debug("status delete failed", logging.Error(err))
	}
}

func (m *Manager) reply(ctx context.Context, job pipeline.Job, text string) {
	if m.chat == nil {
		return
	}
	msg := transport.TextMessage{ChatID: job.ChatID, Text: text, ReplyTo: job.MessageID}
	if _, err := m.chat.SendMessage(ctx, msg); err != nil {
		logging.WithContext(ctx, m.logger).Debug("chat reply failed", logging.Error(err))
	}
}

// alertOwner sends an operational note to the configured owner chat.
func (m *Manager) alertOwner(ctx context.Context, text string) {
	owner := m.cfg.Telegram.OwnerChatID
	if m.chat == nil || owner == 0 {
		return
	}
	if _, err := m.chat.SendMessage(ctx, transport.TextMessage{ChatID: owner, Text: text}); err != nil {
		m.logger.Warn("owner alert failed", logging.Error(err), logging.Alert("owner-alert"))
	}
}

func (m *Manager) failResolution(ctx context.Context, logger *slog.Logger, job pipeline.Job, err error) {
	logger.Warn("resolution failed", logging.String("url", job.URL), logging.Error(err))
	if resolver.IsSignInRequired(err) {
		m.editStatus(ctx, job, signInNotice)
		m.alertOwner(ctx, "Sign-in required, cookies needed for URL: "+job.URL)
		m.queue.Fail(job.ID, "sign-in required")
		return
	}
	m.editStatus(ctx, job, "❌ Failed to read link: "+err.Error())
	m.queue.Fail(job.ID, err.Error())
}

// notifyItemFailure relays one item's failure without stopping the batch.
// Single-video jobs rewrite the status line the way batch jobs get a reply,
// and sign-in trouble additionally pings the owner so cookies get installed.
func (m *Manager) notifyItemFailure(ctx context.Context, logger *slog.Logger, job pipeline.Job, item media.Item, batchSize int, err error) {
	logger.Warn("item failed",
		logging.String(logging.FieldVideoID, item.ID),
		logging.Error(err),
	)
	detail := strings.TrimSpace(services.Detail(err))
	if detail == "" {
		detail = "download failed"
	}

	if batchSize > 1 {
		m.reply(ctx, job, "⚠️ Failed to download entry: "+detail)
		return
	}

	if resolver.IsSignInRequired(err) {
		m.editStatus(ctx, job, signInNotice)
		m.alertOwner(ctx, "Sign-in required, cookies needed for URL: "+item.SourceURL)
		return
	}
	m.editStatus(ctx, job, "❌ Error while downloading: "+detail)
}

func (m *Manager) finishJob(ctx context.Context, logger *slog.Logger, job pipeline.Job, batchSize, delivered, failed int, lastErr error) {
	if batchSize > 1 {
		m.editStatus(ctx, job, fmt.Sprintf("✅ Playlist finished. %d/%d processed.", delivered, batchSize))
		if delivered > 0 {
			m.queue.Complete(job.ID)
			return
		}
		m.queue.Fail(job.ID, failureMessage(lastErr))
		return
	}

	if delivered > 0 {
		// The caption on the delivered file says everything the status line did.
		m.deleteStatus(ctx, job)
		m.queue.Complete(job.ID)
		return
	}
	m.queue.Fail(job.ID, failureMessage(lastErr))
}

func failureMessage(err error) string {
	if err == nil {
		return "nothing was delivered"
	}
	detail := strings.TrimSpace(services.Detail(err))
	if detail == "" {
		return "nothing was delivered"
	}
	return detail
}
