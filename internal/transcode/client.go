package transcode

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"telefetch/internal/ffprobe"
	"telefetch/internal/media"
)

var commandContext = exec.CommandContext

// Result describes the artifact the ladder settled on.
type Result struct {
	Path         string
	Size         int64
	Rung         media.Tier
	Transcoded   bool
	OriginalSize int64
}

// Client defines transcode behaviour.
type Client interface {
	TranscodeToFit(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (Result, error)
}

// Option configures the ffmpeg client.
type Option func(*FFmpeg)

// WithBinary overrides the default ffmpeg binary name.
func WithBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.binary = binary
		}
	}
}

// WithProbeBinary overrides the default ffprobe binary name.
func WithProbeBinary(binary string) Option {
	return func(f *FFmpeg) {
		if binary != "" {
			f.probeBinary = binary
		}
	}
}

// WithCeiling overrides the delivery ceiling.
func WithCeiling(ceiling int64) Option {
	return func(f *FFmpeg) {
		if ceiling > 0 {
			f.ceiling = ceiling
		}
	}
}

// WithMaxRungs bounds how many ladder rungs are attempted.
func WithMaxRungs(rungs int) Option {
	return func(f *FFmpeg) {
		if rungs > 0 {
			f.maxRungs = rungs
		}
	}
}

// FFmpeg walks the downscale ladder with the ffmpeg command-line encoder.
type FFmpeg struct {
	binary      string
	probeBinary string
	ceiling     int64
	maxRungs    int
	probe       func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewFFmpeg constructs an ffmpeg client using defaults.
func NewFFmpeg(opts ...Option) *FFmpeg {
	client := &FFmpeg{
		binary:      "ffmpeg",
		probeBinary: "ffprobe",
		ceiling:     media.DeliveryCeiling,
		maxRungs:    3,
		probe:       ffprobe.Inspect,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// TranscodeToFit returns the input untouched when it already fits, otherwise
// re-encodes down the ladder until an output lands under the ceiling.
func (f *FFmpeg) TranscodeToFit(ctx context.Context, inputPath, outputDir string, progress func(ProgressUpdate)) (Result, error) {
	if strings.TrimSpace(inputPath) == "" {
		return Result{}, errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return Result{}, errors.New("output directory required")
	}

	info, err := os.Stat(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("stat input: %w", err)
	}
	originalSize := info.Size()
	if originalSize <= f.ceiling {
		return Result{Path: inputPath, Size: originalSize, OriginalSize: originalSize}, nil
	}

	probed, err := f.probe(ctx, f.probeBinary, inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("probe source: %w", err)
	}
	sourceHeight := 0
	if video, ok := probed.PrimaryVideo(); ok {
		sourceHeight = video.Height
	}
	duration := probed.DurationSeconds()

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}

	var bestSize int64
	rungs := ladder(sourceHeight, f.maxRungs)
	for _, rung := range rungs {
		outputPath := filepath.Join(outputDir, fmt.Sprintf("%s.%s.mp4", stem, rung))
		if err := f.encodeRung(ctx, inputPath, outputPath, rung.Height(), duration, progress); err != nil {
			_ = os.Remove(outputPath)
			return Result{}, err
		}
		outInfo, err := os.Stat(outputPath)
		if err != nil {
			return Result{}, fmt.Errorf("stat rung output: %w", err)
		}
		if outInfo.Size() <= f.ceiling {
			return Result{
				Path:         outputPath,
				Size:         outInfo.Size(),
				Rung:         rung,
				Transcoded:   true,
				OriginalSize: originalSize,
			}, nil
		}
		if bestSize == 0 || outInfo.Size() < bestSize {
			bestSize = outInfo.Size()
		}
		_ = os.Remove(outputPath)
	}

	return Result{}, &TooLargeError{
		Ceiling:      f.ceiling,
		OriginalSize: originalSize,
		BestSize:     bestSize,
		Rungs:        len(rungs),
	}
}

func (f *FFmpeg) encodeRung(ctx context.Context, inputPath, outputPath string, height int, duration float64, progress func(ProgressUpdate)) error {
	args := buildArgs(inputPath, outputPath, height)
	cmd := commandContext(ctx, f.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	snapshot := progressSnapshot{}
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		update, ok := snapshot.apply(scanner.Text(), duration)
		if ok && progress != nil {
			progress(update)
		}
	}
	if err := scanner.Err(); err != nil {
		_ = cmd.Wait()
		return fmt.Errorf("read ffmpeg output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("ffmpeg encode failed: %w: %s", err, truncate(detail, 512))
		}
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	return nil
}

// buildArgs builds a single-rung re-encode command scaled to the given
// height, progress reporting on stdout.
func buildArgs(inputPath, outputPath string, height int) []string {
	return []string{
		"-hide_banner",
		"-nostdin",
		"-y",
		"-loglevel", "error",
		"-progress", "pipe:1",
		"-nostats",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=-2:%d", height),
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "28",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		outputPath,
	}
}

// ladder returns the rungs to try, highest first, all strictly below the
// source height. A source already at the bottom still gets one re-encode
// attempt at the lowest rung.
func ladder(sourceHeight, maxRungs int) []media.Tier {
	var rungs []media.Tier
	for tier, ok := media.TierBest.Below(); ok; tier, ok = tier.Below() {
		if sourceHeight > 0 && tier.Height() >= sourceHeight {
			continue
		}
		rungs = append(rungs, tier)
	}
	if len(rungs) == 0 {
		rungs = append(rungs, media.Tier360p)
	}
	if maxRungs > 0 && len(rungs) > maxRungs {
		rungs = rungs[:maxRungs]
	}
	return rungs
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

var _ Client = (*FFmpeg)(nil)
