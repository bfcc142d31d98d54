package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telefetch/internal/ffprobe"
	"telefetch/internal/logging"
	"telefetch/internal/media"
	"telefetch/internal/pipeline"
	"telefetch/internal/services"
	"telefetch/internal/testsupport"
	"telefetch/internal/transport"
)

type fakeSender struct {
	videoErr   error
	docErr     error
	getMeErr   error
	videoCalls int
	docCalls   int
	lastUpload transport.Upload
}

func (f *fakeSender) GetMe(ctx context.Context) (transport.User, error) {
	return transport.User{ID: 99, IsBot: true, Username: "telefetch_bot"}, f.getMeErr
}

func (f *fakeSender) SendMessage(ctx context.Context, msg transport.TextMessage) (transport.Message, error) {
	return transport.Message{MessageID: 1}, nil
}

func (f *fakeSender) EditMessageText(ctx context.Context, chatID int64, messageID int, text string) error {
	return nil
}

func (f *fakeSender) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	return nil
}

func (f *fakeSender) SendVideo(ctx context.Context, upload transport.Upload) (transport.Message, error) {
	f.videoCalls++
	f.lastUpload = upload
	return transport.Message{MessageID: 11}, f.videoErr
}

func (f *fakeSender) SendDocument(ctx context.Context, upload transport.Upload) (transport.Message, error) {
	f.docCalls++
	f.lastUpload = upload
	return transport.Message{MessageID: 12}, f.docErr
}

func (f *fakeSender) SetWebhook(ctx context.Context, webhookURL string) error { return nil }

func (f *fakeSender) DeleteWebhook(ctx context.Context) error { return nil }

type fakeUsage struct {
	err      error
	calls    int
	gotUser  int64
	gotBytes int64
}

func (f *fakeUsage) AddUsage(ctx context.Context, userID int64, bytes int64) error {
	f.calls++
	f.gotUser = userID
	f.gotBytes = bytes
	return f.err
}

func stubProbe(ctx context.Context, binary, path string) (ffprobe.Result, error) {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video", Width: 1280, Height: 720}},
		Format:  ffprobe.Format{Duration: "63.4"},
	}, nil
}

func newTask(t *testing.T) *pipeline.Task {
	t.Helper()
	job := pipeline.Job{ID: "job-1", UserID: 7, ChatID: 42, MessageID: 5, Requested: media.Tier720p}
	item := media.Item{ID: "abc123", Title: "Test Clip", Position: 1, BatchSize: 1}
	task := pipeline.NewTask(job, item, media.Tier720p, t.TempDir())
	task.FinalPath = filepath.Join(task.ScratchDir, "abc123.mp4")
	if err := os.WriteFile(task.FinalPath, []byte("abcdef"), 0o644); err != nil {
		t.Fatalf("write final file: %v", err)
	}
	task.FinalSize = 6
	return task
}

func newDeliverer(t *testing.T, sender transport.Client, usage UsageRecorder) *Deliverer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return NewDelivererWithProbe(cfg, logging.NewNop(), sender, usage, stubProbe)
}

func TestPrepareValidatesFinalFile(t *testing.T) {
	deliverer := newDeliverer(t, &fakeSender{}, nil)

	task := newTask(t)
	if err := deliverer.Prepare(context.Background(), task); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	task.FinalPath = filepath.Join(task.ScratchDir, "missing.mp4")
	if err := deliverer.Prepare(context.Background(), task); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}
}

func TestExecuteSendsVideo(t *testing.T) {
	sender := &fakeSender{}
	usage := &fakeUsage{}
	deliverer := newDeliverer(t, sender, usage)

	task := newTask(t)
	if err := deliverer.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !task.Delivered || task.AsDocument {
		t.Fatalf("expected video delivery, got delivered=%v asDocument=%v", task.Delivered, task.AsDocument)
	}
	if sender.videoCalls != 1 || sender.docCalls != 0 {
		t.Fatalf("calls: video %d document %d", sender.videoCalls, sender.docCalls)
	}
	if usage.calls != 1 || usage.gotUser != 7 || usage.gotBytes != 6 {
		t.Fatalf("usage not recorded: %+v", usage)
	}

	upload := sender.lastUpload
	if upload.ChatID != 42 || upload.ReplyTo != 5 {
		t.Fatalf("upload addressing wrong: chat %d reply %d", upload.ChatID, upload.ReplyTo)
	}
	if !strings.Contains(upload.Caption, "Test Clip") || !strings.Contains(upload.Caption, "6 B") {
		t.Fatalf("caption = %q", upload.Caption)
	}
	if upload.Width != 1280 || upload.Height != 720 || upload.Duration != 63 {
		t.Fatalf("probe hints missing: %dx%d %ds", upload.Width, upload.Height, upload.Duration)
	}
	if !upload.SupportsStreaming {
		t.Fatal("expected streaming upload")
	}
}

func TestExecuteFallsBackToDocument(t *testing.T) {
	sender := &fakeSender{videoErr: &transport.APIError{
		Method:      "sendVideo",
		Code:        400,
		Description: "Bad Request: VIDEO_CONTENT_TYPE_INVALID",
	}}
	usage := &fakeUsage{}
	deliverer := newDeliverer(t, sender, usage)

	task := newTask(t)
	if err := deliverer.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !task.Delivered || !task.AsDocument {
		t.Fatalf("expected document fallback, got delivered=%v asDocument=%v", task.Delivered, task.AsDocument)
	}
	if sender.videoCalls != 1 || sender.docCalls != 1 {
		t.Fatalf("calls: video %d document %d", sender.videoCalls, sender.docCalls)
	}
	if usage.calls != 1 {
		t.Fatalf("usage calls = %d, want 1", usage.calls)
	}
}

func TestExecuteChatGoneSkipsRetry(t *testing.T) {
	sender := &fakeSender{videoErr: fmt.Errorf("%w: telegram sendVideo failed: 403 Forbidden: bot was blocked by the user", services.ErrChatGone)}
	usage := &fakeUsage{}
	deliverer := newDeliverer(t, sender, usage)

	task := newTask(t)
	err := deliverer.Execute(context.Background(), task)
	if !errors.Is(err, services.ErrChatGone) {
		t.Fatalf("expected chat-gone error, got %v", err)
	}
	if sender.docCalls != 0 {
		t.Fatalf("document retry must be skipped for a gone chat, got %d calls", sender.docCalls)
	}
	if task.Delivered || usage.calls != 0 {
		t.Fatalf("nothing should be recorded: delivered=%v usage=%d", task.Delivered, usage.calls)
	}
}

func TestExecuteReportsDoubleFailure(t *testing.T) {
	sender := &fakeSender{
		videoErr: errors.New("connection reset"),
		docErr:   errors.New("connection reset"),
	}
	usage := &fakeUsage{}
	deliverer := newDeliverer(t, sender, usage)

	err := deliverer.Execute(context.Background(), newTask(t))
	if !errors.Is(err, services.ErrDelivery) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if sender.videoCalls != 1 || sender.docCalls != 1 {
		t.Fatalf("calls: video %d document %d", sender.videoCalls, sender.docCalls)
	}
	if usage.calls != 0 {
		t.Fatalf("usage must not be recorded on failure, got %d calls", usage.calls)
	}
}

func TestExecuteSurvivesUsageFailure(t *testing.T) {
	sender := &fakeSender{}
	usage := &fakeUsage{err: errors.New("database is locked")}
	deliverer := newDeliverer(t, sender, usage)

	task := newTask(t)
	if err := deliverer.Execute(context.Background(), task); err != nil {
		t.Fatalf("a ledger failure must not fail the delivery: %v", err)
	}
	if !task.Delivered {
		t.Fatal("task must stay delivered")
	}
}

func TestExecuteSurvivesProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	sender := &fakeSender{}
	failing := func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("probe exploded")
	}
	deliverer := NewDelivererWithProbe(cfg, logging.NewNop(), sender, nil, failing)

	task := newTask(t)
	if err := deliverer.Execute(context.Background(), task); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if sender.lastUpload.Width != 0 || sender.lastUpload.Duration != 0 {
		t.Fatalf("hints should be absent after probe failure: %+v", sender.lastUpload)
	}
}

func TestHealthCheck(t *testing.T) {
	deliverer := newDeliverer(t, &fakeSender{}, nil)
	if health := deliverer.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy deliverer, got %+v", health)
	}

	unreachable := newDeliverer(t, &fakeSender{getMeErr: errors.New("dial tcp: timeout")}, nil)
	if health := unreachable.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy deliverer when telegram is unreachable")
	}

	broken := newDeliverer(t, nil, nil)
	if health := broken.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy deliverer without a sender")
	}
}
