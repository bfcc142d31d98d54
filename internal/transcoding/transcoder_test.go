package transcoding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/services"
	"telefetch/internal/testsupport"
	"telefetch/internal/transcode"
)

type fakeTranscoder struct {
	result    transcode.Result
	err       error
	gotInput  string
	gotOutput string
}

func (f *fakeTranscoder) TranscodeToFit(ctx context.Context, inputPath, outputDir string, progress func(transcode.ProgressUpdate)) (transcode.Result, error) {
	f.gotInput = inputPath
	f.gotOutput = outputDir
	if progress != nil {
		progress(transcode.ProgressUpdate{Percent: 50})
		progress(transcode.ProgressUpdate{Percent: 100})
	}
	return f.result, f.err
}

func newTask(t *testing.T) *pipeline.Task {
	t.Helper()
	job := pipeline.Job{ID: "job-1", UserID: 7, ChatID: 7, Requested: media.Tier720p}
	item := media.Item{ID: "abc123", Title: "Test Clip", Position: 1, BatchSize: 1}
	task := pipeline.NewTask(job, item, media.Tier720p, t.TempDir())
	task.FetchedPath = filepath.Join(task.ScratchDir, "abc123.mp4")
	if err := os.WriteFile(task.FetchedPath, []byte("data"), 0o644); err != nil {
		t.Fatalf("write fetched file: %v", err)
	}
	task.FetchedSize = 4
	return task
}

func TestPrepareRequiresFetchedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), &fakeTranscoder{})

	task := newTask(t)
	if err := transcoder.Prepare(context.Background(), task); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	task.FetchedPath = ""
	if err := transcoder.Prepare(context.Background(), task); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without fetched file, got %v", err)
	}
}

func TestExecutePassthroughWhenFits(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	task := newTask(t)
	fake := &fakeTranscoder{result: transcode.Result{
		Path:         task.FetchedPath,
		Size:         4,
		OriginalSize: 4,
	}}
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), fake)

	if err := transcoder.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if task.Transcoded {
		t.Fatal("passthrough must not mark the task transcoded")
	}
	if task.FinalPath != task.FetchedPath || task.FinalSize != 4 {
		t.Fatalf("unexpected task state: path %q size %d", task.FinalPath, task.FinalSize)
	}
	if fake.gotInput != task.FetchedPath || fake.gotOutput != task.ScratchDir {
		t.Fatalf("client called with %q %q", fake.gotInput, fake.gotOutput)
	}
}

func TestExecuteRecordsTranscode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	task := newTask(t)
	fake := &fakeTranscoder{result: transcode.Result{
		Path:         filepath.Join(task.ScratchDir, "abc123.480p.mp4"),
		Size:         900,
		Rung:         media.Tier480p,
		Transcoded:   true,
		OriginalSize: 3000,
	}}
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), fake)

	if err := transcoder.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !task.Transcoded || task.Rung != media.Tier480p {
		t.Fatalf("expected 480p transcode, got transcoded=%v rung=%s", task.Transcoded, task.Rung)
	}
	if task.FinalSize != 900 || task.OriginalSize != 3000 {
		t.Fatalf("unexpected sizes: final %d original %d", task.FinalSize, task.OriginalSize)
	}
}

func TestExecuteReportsTooLarge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeTranscoder{err: &transcode.TooLargeError{
		Ceiling:      2 << 30,
		OriginalSize: 5 << 30,
		BestSize:     3 << 30,
		Rungs:        3,
	}}
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), fake)

	err := transcoder.Execute(context.Background(), newTask(t))
	if !errors.Is(err, services.ErrTooLarge) {
		t.Fatalf("expected too-large error, got %v", err)
	}
	detail := services.Detail(err)
	if !strings.Contains(detail, "5.0 GiB") || !strings.Contains(detail, "3.0 GiB") {
		t.Fatalf("expected sizes in detail, got %q", detail)
	}
}

func TestExecuteWrapsEncoderFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	fake := &fakeTranscoder{err: errors.New("ffmpeg exited with code 1")}
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), fake)

	err := transcoder.Execute(context.Background(), newTask(t))
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected transcode error, got %v", err)
	}
	if errors.Is(err, services.ErrTooLarge) {
		t.Fatalf("encoder failure must not read as too-large: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	transcoder := NewTranscoderWithClient(cfg, logging.NewNop(), &fakeTranscoder{})
	if health := transcoder.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy transcoder, got %+v", health)
	}

	broken := NewTranscoderWithClient(cfg, logging.NewNop(), nil)
	if health := broken.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy transcoder without a client")
	}
}
