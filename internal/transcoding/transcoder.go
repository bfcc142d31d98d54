package transcoding

import (
	"context"
	"errors"
	"fmt"
	"os/exec"

	"log/slog"

	"github.com/dustin/go-humanize"

	"telefetch/internal/config"
	"telefetch/internal/logging"
	"telefetch/internal/pipeline"
	"telefetch/internal/services"
	"telefetch/internal/stage"
	"telefetch/internal/transcode"
)

// Transcoder shrinks fetched files that exceed the delivery ceiling.
type Transcoder struct {
	cfg    *config.Config
	logger *slog.Logger
	client transcode.Client
}

// NewTranscoder constructs the transcode stage handler with an ffmpeg-backed
// client configured from the daemon settings.
func NewTranscoder(cfg *config.Config, logger *slog.Logger) *Transcoder {
	client := transcode.NewFFmpeg(
		transcode.WithBinary(cfg.FFmpegBinary()),
		transcode.WithProbeBinary(cfg.FFprobeBinary()),
		transcode.WithMaxRungs(cfg.Pipeline.TranscodeAttempts),
	)
	return NewTranscoderWithClient(cfg, logger, client)
}

// NewTranscoderWithClient allows injecting the transcode client (used in tests).
func NewTranscoderWithClient(cfg *config.Config, logger *slog.Logger, client transcode.Client) *Transcoder {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "transcoder"))
	}
	return &Transcoder{cfg: cfg, logger: stageLogger, client: client}
}

func (t *Transcoder) Prepare(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, t.logger)
	size, err := stage.RequireFile(task.FetchedPath, "fetched file")
	if err != nil {
		return err
	}
	logger.Info("checking delivery fit",
		logging.String(logging.FieldVideoID, task.Item.ID),
		logging.String("size", humanize.IBytes(uint64(size))),
	)
	return nil
}

func (t *Transcoder) Execute(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, t.logger)
	lastLogged := -25.0
	progress := func(update transcode.ProgressUpdate) {
		if update.Percent < lastLogged+25 && update.Percent < 100 {
			return
		}
		lastLogged = update.Percent
		logger.Debug("transcode progress",
			logging.Float64("percent", update.Percent),
			logging.Float64("speed", update.Speed),
			logging.Float64("fps", update.FPS),
		)
	}

	result, err := t.client.TranscodeToFit(ctx, task.FetchedPath, task.ScratchDir, progress)
	if err != nil {
		var tooLarge *transcode.TooLargeError
		if errors.As(err, &tooLarge) {
			return services.Wrap(services.ErrTooLarge, "transcoding", "fit delivery limit",
				tooLargeDetail(tooLarge), nil)
		}
		return services.Wrap(services.ErrTranscode, "transcoding", "downscale video",
			"Converting the video to a smaller size failed", err)
	}

	task.FinalPath = result.Path
	task.FinalSize = result.Size
	task.Transcoded = result.Transcoded
	task.Rung = result.Rung
	task.OriginalSize = result.OriginalSize
	if result.Transcoded {
		logger.Info("transcode completed",
			logging.String("rung", result.Rung.String()),
			logging.String("before", humanize.IBytes(uint64(result.OriginalSize))),
			logging.String("after", humanize.IBytes(uint64(result.Size))),
		)
	} else {
		logger.Info("original fits delivery limit",
			logging.String("size", humanize.IBytes(uint64(result.Size))),
		)
	}
	return nil
}

// HealthCheck verifies both encoder binaries are on PATH.
func (t *Transcoder) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcoder"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if t.client == nil {
		return stage.Unhealthy(name, "transcode client unavailable")
	}
	for _, binary := range []string{t.cfg.FFmpegBinary(), t.cfg.FFprobeBinary()} {
		if _, err := exec.LookPath(binary); err != nil {
			return stage.Unhealthy(name, fmt.Sprintf("binary %q not found", binary))
		}
	}
	return stage.Healthy(name)
}

func tooLargeDetail(err *transcode.TooLargeError) string {
	original := humanize.IBytes(uint64(err.OriginalSize))
	ceiling := humanize.IBytes(uint64(err.Ceiling))
	if err.BestSize > 0 {
		return fmt.Sprintf("This video is %s and its smallest version still came to %s, over the %s delivery limit",
			original, humanize.IBytes(uint64(err.BestSize)), ceiling)
	}
	return fmt.Sprintf("This video is %s and cannot be shrunk under the %s delivery limit",
		original, ceiling)
}
