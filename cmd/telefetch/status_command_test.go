package main

import (
	"strings"
	"testing"

	"telefetch/internal/api"
)

func TestStatusCommandRendersSections(t *testing.T) {
	fake := &fakeDaemonAPI{
		status: &api.StatusResponse{
			Running:    true,
			PID:        4242,
			WebhookSet: true,
			LockPath:   "/var/log/telefetch/telefetchd.lock",
			Queue:      map[string]int{"fetching": 1, "pending": 2},
			Stages: []api.StageHealth{
				{Name: "fetch", Ready: true, Detail: "ready"},
				{Name: "transcode", Ready: false, Detail: "ffmpeg not found"},
			},
			Database: api.DatabaseHealth{
				Path:           "/var/lib/telefetch.db",
				Exists:         true,
				Readable:       true,
				IntegrityCheck: true,
				PreferenceRows: 4,
			},
			Dependencies: []api.DependencyStatus{
				{Name: "FFmpeg", Command: "ffmpeg", Available: true, Detail: "/usr/bin/ffmpeg"},
				{Name: "FFprobe", Command: "ffprobe", Available: false, Detail: "ffprobe not found in PATH", Description: "Required for media inspection"},
			},
		},
	}
	srv := fake.start(t)
	cfgPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, []string{"status"}, srv.URL, cfgPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}

	requireContains(t, stdout, "== Daemon ==")
	requireContains(t, stdout, "Running (pid 4242)")
	requireContains(t, stdout, "[OK] Registered")
	requireContains(t, stdout, "== Stages ==")
	requireContains(t, stdout, "[ERROR] ffmpeg not found")
	requireContains(t, stdout, "== Queue ==")
	requireContains(t, stdout, "Fetching:")
	requireContains(t, stdout, "== Database ==")
	requireContains(t, stdout, "4 preferences")
	requireContains(t, stdout, "== Dependencies ==")
	requireContains(t, stdout, "/usr/bin/ffmpeg")
	requireContains(t, stdout, "== Paths ==")
	requireContains(t, stdout, "read/write ok")
}

func TestStatusCommandDaemonDown(t *testing.T) {
	cfgPath := writeTestConfig(t)

	// Port 1 refuses connections without a listener race.
	stdout, _, err := runCLI(t, []string{"status"}, "127.0.0.1:1", cfgPath)
	if err != nil {
		t.Fatalf("status should not fail when the daemon is down: %v", err)
	}
	requireContains(t, stdout, "Not reachable at 127.0.0.1:1")
	// Local sections still render from the config.
	requireContains(t, stdout, "== Dependencies ==")
	requireContains(t, stdout, "== Paths ==")
	if strings.Contains(stdout, "== Stages ==") {
		t.Fatal("stage section should be omitted when the daemon is down")
	}
}

func TestStatusQueueIdleLabel(t *testing.T) {
	fake := &fakeDaemonAPI{
		status: &api.StatusResponse{Running: true, PID: 1, Queue: map[string]int{}},
	}
	srv := fake.start(t)
	cfgPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, []string{"status"}, srv.URL, cfgPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "[OK] Idle")
}
