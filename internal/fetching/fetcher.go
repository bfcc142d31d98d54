package fetching

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"

	"log/slog"

	"github.com/dustin/go-humanize"

	"telefetch/internal/config"
	"telefetch/internal/fetch"
	"telefetch/internal/logging"
	"telefetch/internal/pipeline"
	"telefetch/internal/resolver"
	"telefetch/internal/services"
	"telefetch/internal/stage"
)

// Fetcher downloads the selected stream variant for one batch item.
type Fetcher struct {
	cfg    *config.Config
	logger *slog.Logger
	client fetch.Client
}

// NewFetcher constructs the fetch stage handler using default dependencies.
// The HTTP client should share its cookie jar with the resolver so restricted
// streams stay authorized across metadata and data requests.
func NewFetcher(cfg *config.Config, logger *slog.Logger, httpClient *http.Client) *Fetcher {
	downloader := fetch.NewDownloader(
		fetch.WithHTTPClient(httpClient),
		fetch.WithFFmpegBinary(cfg.FFmpegBinary()),
		fetch.WithAttempts(cfg.Pipeline.FetchAttempts),
		fetch.WithRetryBase(cfg.FetchRetryBaseDelay()),
	)
	return NewFetcherWithClient(cfg, logger, downloader)
}

// NewFetcherWithClient allows injecting the downloader (used in tests).
func NewFetcherWithClient(cfg *config.Config, logger *slog.Logger, client fetch.Client) *Fetcher {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "fetcher"))
	}
	return &Fetcher{cfg: cfg, logger: stageLogger, client: client}
}

func (f *Fetcher) Prepare(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, f.logger)
	if strings.TrimSpace(task.Item.SourceURL) == "" {
		return services.Wrap(services.ErrValidation, "fetching", "validate inputs",
			"Resolved item has no source URL", nil)
	}
	if _, err := os.Stat(task.ScratchDir); err != nil {
		return services.Wrap(services.ErrValidation, "fetching", "check scratch directory",
			"Scratch directory for this item is missing", err)
	}
	logger.Info("starting fetch",
		logging.String(logging.FieldVideoID, task.Item.ID),
		logging.String("title", task.Item.Title),
		logging.String("tier", task.Tier.String()),
	)
	return nil
}

func (f *Fetcher) Execute(ctx context.Context, task *pipeline.Task) error {
	logger := logging.WithContext(ctx, f.logger)
	lastLogged := -10.0
	progress := func(update fetch.ProgressUpdate) {
		// One line per ten percent keeps multi-GB downloads readable.
		if update.Percent < lastLogged+10 && update.Percent < 100 {
			return
		}
		lastLogged = update.Percent
		logger.Debug("download progress",
			logging.Float64("percent", update.Percent),
			logging.Int64("downloaded", update.Downloaded),
			logging.Int64("total", update.Total),
		)
	}

	result, err := f.client.Fetch(ctx, task.Item, task.Tier, task.ScratchDir, progress)
	if err != nil {
		return classifyFetchError(err)
	}
	task.FetchedPath = result.Path
	task.FetchedSize = result.Size
	task.Variant = result.Variant
	task.Muxed = result.Muxed
	logger.Info("fetch completed",
		logging.String("path", result.Path),
		logging.String("size", humanize.IBytes(uint64(result.Size))),
		logging.Int("itag", result.Variant.Itag),
		logging.Int("height", result.Variant.Height),
		logging.Bool("muxed", result.Muxed),
	)
	return nil
}

// HealthCheck verifies fetch prerequisites: scratch space configuration and
// the ffmpeg binary used for muxing separate streams.
func (f *Fetcher) HealthCheck(ctx context.Context) stage.Health {
	const name = "fetcher"
	if f.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(f.cfg.Paths.ScratchDir) == "" {
		return stage.Unhealthy(name, "scratch directory not configured")
	}
	if f.client == nil {
		return stage.Unhealthy(name, "downloader unavailable")
	}
	binary := f.cfg.FFmpegBinary()
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("ffmpeg binary %q not found", binary))
	}
	return stage.Healthy(name)
}

func classifyFetchError(err error) error {
	switch {
	case resolver.IsSignInRequired(err):
		return services.Wrap(services.ErrFetchPermanent, "fetching", "authorize stream",
			"This video requires YouTube sign-in; the operator must install cookies", err)
	case errors.Is(err, resolver.ErrRestricted):
		return services.Wrap(services.ErrFetchPermanent, "fetching", "open stream",
			"This video is private or not available for download", err)
	case errors.Is(err, resolver.ErrUnsupportedURL):
		return services.Wrap(services.ErrFetchPermanent, "fetching", "open stream",
			"The link does not point to a downloadable video", err)
	case fetch.Transient(err):
		return services.Wrap(services.ErrFetchTransient, "fetching", "download stream",
			"Downloading kept failing; try again in a little while", err)
	default:
		return services.Wrap(services.ErrFetchPermanent, "fetching", "download stream",
			"Downloading the video failed", err)
	}
}
