package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"

	"telefetch/internal/media"
	"telefetch/internal/resolver"
)

var (
	progressivePayload = bytes.Repeat([]byte("P"), 1000)
	videoOnlyPayload   = bytes.Repeat([]byte("V"), 600)
	audioOnlyPayload   = bytes.Repeat([]byte("A"), 400)
)

func payloadForItag(itag int) []byte {
	switch itag {
	case 22:
		return progressivePayload
	case 137:
		return videoOnlyPayload
	case 140:
		return audioOnlyPayload
	}
	return nil
}

func testVideo() *youtube.Video {
	return &youtube.Video{
		ID:    "abc123",
		Title: "Test Clip",
		Formats: youtube.FormatList{
			{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Height: 720, Width: 1280, Bitrate: 1_000_000, AudioChannels: 2, ContentLength: int64(len(progressivePayload))},
			{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Height: 1080, Width: 1920, Bitrate: 4_000_000, ContentLength: int64(len(videoOnlyPayload))},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128_000, AudioChannels: 2, ContentLength: int64(len(audioOnlyPayload))},
		},
	}
}

func stubDownloader(opts ...Option) *Downloader {
	d := NewDownloader(opts...)
	d.getVideo = func(context.Context, string) (*youtube.Video, error) {
		return testVideo(), nil
	}
	d.getStream = func(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
		payload := payloadForItag(format.ItagNo)
		return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
	}
	d.sleep = func(context.Context, time.Duration) error { return nil }
	return d
}

func testItem() media.Item {
	return media.Item{
		ID:        "abc123",
		Title:     "Test Clip",
		SourceURL: "https://www.youtube.com/watch?v=abc123",
		Position:  1,
		BatchSize: 1,
	}
}

func TestNewDownloaderOptions(t *testing.T) {
	d := NewDownloader(WithFFmpegBinary("/opt/ffmpeg"), WithAttempts(5), WithRetryBase(time.Second))
	if d.ffmpegBinary != "/opt/ffmpeg" {
		t.Fatalf("expected ffmpeg override, got %q", d.ffmpegBinary)
	}
	if d.attempts != 5 {
		t.Fatalf("expected attempts override, got %d", d.attempts)
	}
	if d.retryBase != time.Second {
		t.Fatalf("expected retry base override, got %s", d.retryBase)
	}
}

func TestFetchRequiresSourceURLAndScratch(t *testing.T) {
	d := stubDownloader()
	if _, err := d.Fetch(context.Background(), media.Item{}, media.Tier720p, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for missing source URL")
	}
	if _, err := d.Fetch(context.Background(), testItem(), media.Tier720p, "", nil); err == nil {
		t.Fatal("expected error for missing scratch dir")
	}
}

func TestFetchProgressiveDownload(t *testing.T) {
	d := stubDownloader()
	scratch := t.TempDir()

	var updates []ProgressUpdate
	result, err := d.Fetch(context.Background(), testItem(), media.Tier720p, scratch, func(update ProgressUpdate) {
		updates = append(updates, update)
	})
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Variant.Itag != 22 {
		t.Fatalf("expected progressive 720p stream, got itag %d", result.Variant.Itag)
	}
	if result.Muxed {
		t.Fatal("progressive download should not be muxed")
	}
	if result.Path != filepath.Join(scratch, "Test Clip.mp4") {
		t.Fatalf("unexpected output path: %q", result.Path)
	}
	if result.Size != int64(len(progressivePayload)) {
		t.Fatalf("unexpected size: %d", result.Size)
	}
	content, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("reading output failed: %v", err)
	}
	if !bytes.Equal(content, progressivePayload) {
		t.Fatal("output content does not match stream payload")
	}
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}
	if final := updates[len(updates)-1]; final.Percent != 100 {
		t.Fatalf("expected final update at 100 percent, got %f", final.Percent)
	}
}

func TestFetchMuxesSeparateStreams(t *testing.T) {
	setHelperCommand(t, "mux")
	d := stubDownloader()
	scratch := t.TempDir()

	result, err := d.Fetch(context.Background(), testItem(), media.Tier1080p, scratch, nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Variant.Itag != 137 {
		t.Fatalf("expected 1080p stream, got itag %d", result.Variant.Itag)
	}
	if !result.Muxed {
		t.Fatal("expected muxed result for video-only stream")
	}
	content, err := os.ReadFile(result.Path)
	if err != nil {
		t.Fatalf("reading muxed output failed: %v", err)
	}
	if int64(len(content)) != result.Size {
		t.Fatalf("size mismatch: file %d, result %d", len(content), result.Size)
	}
	if !bytes.HasPrefix(content, videoOnlyPayload) || !bytes.HasSuffix(content, audioOnlyPayload) {
		t.Fatal("muxed output should contain video then audio payload")
	}

	for _, leftover := range []string{"stream-video.mp4", "stream-audio.m4a"} {
		if _, err := os.Stat(filepath.Join(scratch, leftover)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s removed after mux, stat err=%v", leftover, err)
		}
	}
}

func TestFetchMuxFailureSurfacesStderr(t *testing.T) {
	setHelperCommand(t, "mux-failure")
	d := stubDownloader()

	_, err := d.Fetch(context.Background(), testItem(), media.Tier1080p, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected mux failure")
	}
	if !strings.Contains(err.Error(), "mux exploded") {
		t.Fatalf("expected stderr detail in error, got %v", err)
	}
}

func TestFetchRetriesTransientStreamErrors(t *testing.T) {
	d := stubDownloader(WithRetryBase(2 * time.Second))
	calls := 0
	d.getStream = func(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
		calls++
		if calls == 1 {
			return nil, 0, youtube.ErrUnexpectedStatusCode(503)
		}
		payload := payloadForItag(format.ItagNo)
		return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
	}
	var delays []time.Duration
	d.sleep = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	result, err := d.Fetch(context.Background(), testItem(), media.Tier720p, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Size != int64(len(progressivePayload)) {
		t.Fatalf("unexpected size after retry: %d", result.Size)
	}
	if calls != 2 {
		t.Fatalf("expected 2 stream attempts, got %d", calls)
	}
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Fatalf("expected one backoff of 2s, got %v", delays)
	}
}

func TestFetchRecoversFromTruncatedStream(t *testing.T) {
	d := stubDownloader(WithRetryBase(time.Millisecond))
	calls := 0
	d.getStream = func(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
		calls++
		payload := payloadForItag(format.ItagNo)
		if calls == 1 {
			return io.NopCloser(bytes.NewReader(payload[:len(payload)/2])), int64(len(payload)), nil
		}
		return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
	}
	d.sleep = func(context.Context, time.Duration) error { return nil }

	result, err := d.Fetch(context.Background(), testItem(), media.Tier720p, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected truncated stream to trigger retry, got %d attempts", calls)
	}
	if result.Size != int64(len(progressivePayload)) {
		t.Fatalf("unexpected size after retry: %d", result.Size)
	}
}

func TestFetchDoesNotRetryRestrictedContent(t *testing.T) {
	d := stubDownloader()
	calls := 0
	d.getVideo = func(context.Context, string) (*youtube.Video, error) {
		calls++
		return nil, fmt.Errorf("fetching video: %w", youtube.ErrVideoPrivate)
	}
	var delays []time.Duration
	d.sleep = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	_, err := d.Fetch(context.Background(), testItem(), media.Tier720p, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected restricted content error")
	}
	if !errors.Is(err, resolver.ErrRestricted) {
		t.Fatalf("expected restricted classification, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if len(delays) != 0 {
		t.Fatalf("expected no backoff, got %v", delays)
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	d := stubDownloader(WithAttempts(2), WithRetryBase(time.Millisecond))
	calls := 0
	d.getStream = func(context.Context, *youtube.Video, *youtube.Format) (io.ReadCloser, int64, error) {
		calls++
		return nil, 0, youtube.ErrUnexpectedStatusCode(503)
	}
	d.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := d.Fetch(context.Background(), testItem(), media.Tier720p, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected exhausted attempts error")
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Fatalf("expected attempt count in error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	d := NewDownloader(WithRetryBase(3 * time.Second))
	cases := []struct {
		retry int
		want  time.Duration
	}{
		{1, 3 * time.Second},
		{2, 6 * time.Second},
		{3, 12 * time.Second},
		{4, 24 * time.Second},
		{5, 30 * time.Second},
		{8, 30 * time.Second},
	}
	for _, tc := range cases {
		if got := d.backoff(tc.retry); got != tc.want {
			t.Fatalf("backoff(%d) = %s, want %s", tc.retry, got, tc.want)
		}
	}
}

func TestChooseAudioPrefersMatchingContainer(t *testing.T) {
	variants := []media.Variant{
		{Itag: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160_000, AudioChannels: 2},
		{Itag: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128_000, AudioChannels: 2},
		{Itag: 137, MimeType: `video/mp4; codecs="avc1"`, Height: 1080, Bitrate: 4_000_000},
	}

	mp4Audio, err := chooseAudio(variants, `video/mp4; codecs="avc1"`)
	if err != nil {
		t.Fatalf("chooseAudio returned error: %v", err)
	}
	if mp4Audio.Itag != 140 {
		t.Fatalf("expected mp4 audio despite lower bitrate, got itag %d", mp4Audio.Itag)
	}

	webmAudio, err := chooseAudio(variants, `video/webm; codecs="vp9"`)
	if err != nil {
		t.Fatalf("chooseAudio returned error: %v", err)
	}
	if webmAudio.Itag != 251 {
		t.Fatalf("expected webm audio, got itag %d", webmAudio.Itag)
	}

	if _, err := chooseAudio([]media.Variant{{Itag: 137, Height: 1080}}, "video/mp4"); !errors.Is(err, media.ErrNoVariant) {
		t.Fatalf("expected ErrNoVariant without audio streams, got %v", err)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FETCH_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := helperArgs()
	switch os.Getenv("FETCH_HELPER_MODE") {
	case "mux":
		var inputs []string
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				inputs = append(inputs, args[i+1])
			}
		}
		if len(inputs) != 2 || len(args) == 0 {
			fmt.Fprintln(os.Stderr, "expected two inputs and an output")
			os.Exit(1)
		}
		var merged []byte
		for _, input := range inputs {
			content, err := os.ReadFile(input)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			merged = append(merged, content...)
		}
		if err := os.WriteFile(args[len(args)-1], merged, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	case "mux-failure":
		fmt.Fprintln(os.Stderr, "mux exploded")
		os.Exit(1)
	default:
		os.Exit(0)
	}
}

func helperArgs() []string {
	for i, arg := range os.Args {
		if arg == "--" {
			return os.Args[i+1:]
		}
	}
	return nil
}
