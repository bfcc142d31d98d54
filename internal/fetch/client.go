package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/kkdai/youtube/v2"

	"telefetch/internal/media"
	"telefetch/internal/resolver"
)

const (
	defaultAttempts  = 3
	defaultRetryBase = 3 * time.Second
	maxRetryDelay    = 30 * time.Second
	copyBufferSize   = 32 * 1024
)

// ProgressUpdate reports cumulative download progress for one item.
type ProgressUpdate struct {
	Downloaded int64
	Total      int64
	Percent    float64
}

// ProgressFunc receives progress updates during a download.
type ProgressFunc func(ProgressUpdate)

// Result describes the file a fetch produced in scratch space.
type Result struct {
	Path    string
	Size    int64
	Variant media.Variant
	Muxed   bool
}

// Client is the downloader contract the fetch stage depends on.
type Client interface {
	Fetch(ctx context.Context, item media.Item, tier media.Tier, scratchDir string, progress ProgressFunc) (Result, error)
}

// Downloader fetches streams for resolved items.
type Downloader struct {
	client       *youtube.Client
	ffmpegBinary string
	attempts     int
	retryBase    time.Duration

	getVideo  func(ctx context.Context, url string) (*youtube.Video, error)
	getStream func(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
	sleep     func(ctx context.Context, delay time.Duration) error
}

var _ Client = (*Downloader)(nil)

// Option adjusts Downloader construction.
type Option func(*Downloader)

// WithHTTPClient swaps the HTTP client used for stream requests. The daemon
// passes a client carrying the shared cookie jar and no client-level timeout;
// download deadlines come from the per-item context.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = &youtube.Client{HTTPClient: client}
		}
	}
}

// WithFFmpegBinary overrides the ffmpeg binary used for the mux pass.
func WithFFmpegBinary(binary string) Option {
	return func(d *Downloader) {
		if binary != "" {
			d.ffmpegBinary = binary
		}
	}
}

// WithAttempts bounds how many times a transient failure is retried.
func WithAttempts(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.attempts = n
		}
	}
}

// WithRetryBase sets the first retry delay; later retries double it.
func WithRetryBase(base time.Duration) Option {
	return func(d *Downloader) {
		if base > 0 {
			d.retryBase = base
		}
	}
}

// NewDownloader builds a downloader with defaults suitable for production.
func NewDownloader(opts ...Option) *Downloader {
	downloader := &Downloader{
		client:       &youtube.Client{},
		ffmpegBinary: "ffmpeg",
		attempts:     defaultAttempts,
		retryBase:    defaultRetryBase,
	}
	for _, opt := range opts {
		opt(downloader)
	}
	downloader.getVideo = downloader.client.GetVideoContext
	downloader.getStream = downloader.client.GetStreamContext
	downloader.sleep = sleepContext
	return downloader
}

// Fetch downloads the item at the requested tier into scratchDir and returns
// the finished file. Transient failures restart the whole fetch so expired
// stream URLs are refreshed on every attempt.
func (d *Downloader) Fetch(ctx context.Context, item media.Item, tier media.Tier, scratchDir string, progress ProgressFunc) (Result, error) {
	if item.SourceURL == "" {
		return Result{}, errors.New("item has no source URL")
	}
	if scratchDir == "" {
		return Result{}, errors.New("scratch directory not set")
	}

	var lastErr error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 {
			if err := d.sleep(ctx, d.backoff(attempt-1)); err != nil {
				return Result{}, err
			}
		}
		result, err := d.fetchOnce(ctx, item, tier, scratchDir, progress)
		if err == nil {
			return result, nil
		}
		if !Transient(err) {
			return Result{}, err
		}
		lastErr = err
	}
	return Result{}, fmt.Errorf("download failed after %d attempts: %w", d.attempts, lastErr)
}

// backoff returns the delay before the given retry (1-based).
func (d *Downloader) backoff(retry int) time.Duration {
	delay := d.retryBase
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func (d *Downloader) fetchOnce(ctx context.Context, item media.Item, tier media.Tier, scratchDir string, progress ProgressFunc) (Result, error) {
	video, err := d.getVideo(ctx, item.SourceURL)
	if err != nil {
		return Result{}, resolver.Classify(fmt.Errorf("refreshing metadata: %w", err))
	}
	variants := resolver.Variants(video.Formats)
	variant, err := media.SelectVariant(variants, tier)
	if err != nil {
		return Result{}, fmt.Errorf("selecting stream: %w", err)
	}
	format := formatByItag(video.Formats, variant.Itag)
	if format == nil {
		return Result{}, fmt.Errorf("%w: selected stream missing from fresh metadata", resolver.ErrUnavailable)
	}

	baseName := sanitizeFileName(item.Title)
	single := func(format *youtube.Format) (Result, error) {
		outputPath := filepath.Join(scratchDir, baseName+videoExtension(variant.MimeType))
		track := newTracker(format.ContentLength, progress)
		size, err := d.downloadStream(ctx, video, format, outputPath, track)
		if err != nil {
			return Result{}, err
		}
		track.finish()
		return Result{Path: outputPath, Size: size, Variant: variant}, nil
	}

	if variant.Progressive() {
		return single(format)
	}
	audioVariant, err := chooseAudio(variants, variant.MimeType)
	if err != nil {
		// Source offers no audio stream at all; ship the video as-is.
		return single(format)
	}
	audioFormat := formatByItag(video.Formats, audioVariant.Itag)
	if audioFormat == nil {
		return Result{}, fmt.Errorf("%w: selected audio stream missing from fresh metadata", resolver.ErrUnavailable)
	}

	videoTemp := filepath.Join(scratchDir, "stream-video"+videoExtension(variant.MimeType))
	audioTemp := filepath.Join(scratchDir, "stream-audio"+audioExtension(audioVariant.MimeType))
	outputPath := filepath.Join(scratchDir, baseName+videoExtension(variant.MimeType))

	track := newTracker(format.ContentLength+audioFormat.ContentLength, progress)
	if _, err := d.downloadStream(ctx, video, format, videoTemp, track); err != nil {
		return Result{}, err
	}
	if _, err := d.downloadStream(ctx, video, audioFormat, audioTemp, track); err != nil {
		return Result{}, err
	}
	if err := d.mux(ctx, videoTemp, audioTemp, outputPath); err != nil {
		return Result{}, err
	}
	os.Remove(videoTemp)
	os.Remove(audioTemp)

	info, err := os.Stat(outputPath)
	if err != nil {
		return Result{}, fmt.Errorf("inspecting muxed output: %w", err)
	}
	if info.Size() == 0 {
		return Result{}, errors.New("muxed output is empty")
	}
	track.finish()
	return Result{Path: outputPath, Size: info.Size(), Variant: variant, Muxed: true}, nil
}

func (d *Downloader) downloadStream(ctx context.Context, video *youtube.Video, format *youtube.Format, path string, track *tracker) (int64, error) {
	stream, expected, err := d.getStream(ctx, video, format)
	if err != nil {
		return 0, resolver.Classify(fmt.Errorf("opening stream: %w", err))
	}
	defer stream.Close()

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}

	var written int64
	buf := make([]byte, copyBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			file.Close()
			return written, err
		}
		n, readErr := stream.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				return written, fmt.Errorf("writing %s: %w", path, writeErr)
			}
			written += int64(n)
			track.add(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			return written, resolver.Classify(fmt.Errorf("reading stream: %w", readErr))
		}
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("closing %s: %w", path, err)
	}
	if written == 0 {
		return 0, fmt.Errorf("stream for %s was empty: %w", filepath.Base(path), io.ErrUnexpectedEOF)
	}
	if expected > 0 && written < expected {
		return written, fmt.Errorf("stream truncated at %d of %d bytes: %w", written, expected, io.ErrUnexpectedEOF)
	}
	return written, nil
}

// chooseAudio picks the companion audio stream for a video-only download,
// preferring the same container family so the copy-codec mux succeeds.
func chooseAudio(variants []media.Variant, videoMime string) (media.Variant, error) {
	token := containerToken(videoMime)
	var best *media.Variant
	bestMatches := false
	for i := range variants {
		candidate := &variants[i]
		if candidate.HasVideo() || !candidate.HasAudio() {
			continue
		}
		matches := token != "" && containerToken(candidate.MimeType) == token
		switch {
		case best == nil:
			best = candidate
			bestMatches = matches
		case matches != bestMatches:
			if matches {
				best = candidate
				bestMatches = true
			}
		case candidate.Bitrate > best.Bitrate:
			best = candidate
		}
	}
	if best == nil {
		return media.Variant{}, media.ErrNoVariant
	}
	return *best, nil
}

func formatByItag(formats youtube.FormatList, itag int) *youtube.Format {
	for i := range formats {
		if formats[i].ItagNo == itag {
			return &formats[i]
		}
	}
	return nil
}

type tracker struct {
	total      int64
	downloaded int64
	progress   ProgressFunc
}

func newTracker(total int64, progress ProgressFunc) *tracker {
	return &tracker{total: total, progress: progress}
}

func (t *tracker) add(n int) {
	t.downloaded += int64(n)
	if t.progress == nil {
		return
	}
	update := ProgressUpdate{Downloaded: t.downloaded, Total: t.total}
	if t.total > 0 {
		percent := float64(t.downloaded) / float64(t.total) * 100
		if percent > 99.9 {
			percent = 99.9
		}
		update.Percent = percent
	}
	t.progress(update)
}

// finish emits the terminal 100 percent update once the file is in place.
func (t *tracker) finish() {
	if t.progress == nil {
		return
	}
	t.progress(ProgressUpdate{Downloaded: t.downloaded, Total: t.total, Percent: 100})
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
