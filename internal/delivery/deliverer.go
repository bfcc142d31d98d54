package delivery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"log/slog"

	"github.com/dustin/go-humanize"

	"telefetch/internal/config"
	"telefetch/internal/ffprobe"
	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/services"
	"telefetch/internal/stage"
	"telefetch/internal/transport"
)

// maxRetryPause caps how long a flood-wait hint may stall the worker before
// the document fallback is attempted.
const maxRetryPause = 30 * time.Second

// UsageRecorder persists delivered byte counts per user.
type UsageRecorder interface {
	AddUsage(ctx context.Context, userID int64, bytes int64) error
}

type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Deliverer uploads finished files to the requesting chat.
type Deliverer struct {
	cfg    *config.Config
	logger *slog.Logger
	sender transport.Client
	usage  UsageRecorder
	probe  probeFunc
}

// NewDeliverer constructs the delivery stage handler. The usage recorder may
// be nil, in which case delivered bytes are not tracked.
func NewDeliverer(cfg *config.Config, logger *slog.Logger, sender transport.Client, usage UsageRecorder) *Deliverer {
	return NewDelivererWithProbe(cfg, logger, sender, usage, ffprobe.Inspect)
}

// NewDelivererWithProbe allows injecting the media probe (used in tests).
func NewDelivererWithProbe(cfg *config.Config, logger *slog.Logger, sender transport.Client, usage UsageRecorder, probe probeFunc) *Deliverer {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "deliverer"))
	}
	return &Deliverer{cfg: cfg, logger: stageLogger, sender: sender, usage: usage, probe: probe}
}

func (d *Deliverer) Prepare(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, d.logger)
	size, err := stage.RequireFile(task.FinalPath, "final file")
	if err != nil {
		return err
	}
	if size > media.DeliveryCeiling {
		return services.Wrap(services.ErrTooLarge, "delivery", "check size",
			fmt.Sprintf("File is %s, over the %s delivery limit",
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(media.DeliveryCeiling))), nil)
	}
	logger.Info("starting delivery",
		logging.String(logging.FieldVideoID, task.Item.ID),
		logging.Int64(logging.FieldChatID, task.Job.ChatID),
		logging.String("size", humanize.IBytes(uint64(size))),
	)
	return nil
}

func (d *Deliverer) Execute(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, d.logger)

	title := task.Item.Title
	if title == "" {
		title = filepath.Base(task.FinalPath)
	}
	upload := transport.Upload{
		ChatID:            task.Job.ChatID,
		Path:              task.FinalPath,
		Caption:           fmt.Sprintf("🎬 %s — %s", title, humanize.IBytes(uint64(task.FinalSize))),
		ReplyTo:           task.Job.MessageID,
		SupportsStreaming: true,
	}
	d.applyVideoHints(ctx, logger, &upload)

	message, err := d.sender.SendVideo(ctx, upload)
	if err != nil {
		if errors.Is(err, services.ErrChatGone) {
			return services.Wrap(services.ErrChatGone, "delivery", "send video",
				"The chat is no longer reachable", err)
		}
		if wait := transport.RetryAfter(err); wait > 0 {
			if wait > maxRetryPause {
				wait = maxRetryPause
			}
			logger.Warn("telegram asked to slow down",
				logging.String("pause", wait.String()),
			)
			if pauseErr := sleepContext(ctx, wait); pauseErr != nil {
				return services.Wrap(services.ErrDelivery, "delivery", "send video",
					"Sending the file to Telegram was interrupted", pauseErr)
			}
		}
		logger.Warn("video send failed, retrying as document",
			logging.String(logging.FieldVideoID, task.Item.ID),
			logging.Error(err),
		)
		message, err = d.sender.SendDocument(ctx, upload)
		if err != nil {
			if errors.Is(err, services.ErrChatGone) {
				return services.Wrap(services.ErrChatGone, "delivery", "send document",
					"The chat is no longer reachable", err)
			}
			return services.Wrap(services.ErrDelivery, "delivery", "send document",
				"Sending the file to Telegram failed", err)
		}
		task.AsDocument = true
	}

	task.Delivered = true
	if d.usage != nil {
		if err := d.usage.AddUsage(ctx, task.Job.UserID, task.FinalSize); err != nil {
			// A failed ledger write never claws back a delivered file.
			logger.Warn("usage ledger write failed",
				logging.Int64(logging.FieldUserID, task.Job.UserID),
				logging.Error(err),
				logging.Alert("usage-ledger"),
			)
		}
	}
	logger.Info("delivery completed",
		logging.String(logging.FieldVideoID, task.Item.ID),
		logging.Int("message_id", message.MessageID),
		logging.Bool("as_document", task.AsDocument),
	)
	return nil
}

// HealthCheck verifies the Telegram client is wired up.
func (d *Deliverer) HealthCheck(ctx context.Context) stage.Health {
	const name = "deliverer"
	if d.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if d.sender == nil {
		return stage.Unhealthy(name, "telegram client unavailable")
	}
	if _, err := d.sender.GetMe(ctx); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("telegram api unreachable: %v", err))
	}
	return stage.Healthy(name)
}

// applyVideoHints fills width, height, and duration so Telegram renders an
// inline player with the right aspect ratio. Probe failures only cost the
// hints, never the delivery.
func (d *Deliverer) applyVideoHints(ctx context.Context, logger *slog.Logger, upload *transport.Upload) {
	if d.probe == nil || d.cfg == nil {
		return
	}
	probed, err := d.probe(ctx, d.cfg.FFprobeBinary(), upload.Path)
	if err != nil {
		logger.Debug("probe for video hints failed", logging.Error(err))
		return
	}
	if video, ok := probed.PrimaryVideo(); ok {
		upload.Width = video.Width
		upload.Height = video.Height
	}
	if seconds := probed.DurationSeconds(); seconds > 0 {
		upload.Duration = int(seconds + 0.5)
	}
}

func sleepContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
