package main

import (
	"testing"

	"telefetch/internal/api"
)

func TestJobsCommandRendersTables(t *testing.T) {
	fake := &fakeDaemonAPI{
		jobs: &api.JobsResponse{
			Active: []api.JobView{
				{
					ID:        "0b5fd1a2-854c-4b44-9925-aa1e3f1d8d2a",
					UserID:    42,
					Status:    "transcoding",
					ItemIndex: 2,
					BatchSize: 5,
					Title:     "Concert Night",
				},
			},
			Waiting: []api.JobView{
				{
					ID:            "9f3ab0c4-0000-4000-8000-000000000001",
					UserID:        99,
					Requested:     "1080p",
					URL:           "https://youtu.be/abc123",
					QueuePosition: 1,
				},
			},
		},
	}
	srv := fake.start(t)

	stdout, _, err := runCLI(t, []string{"jobs"}, srv.URL, writeTestConfig(t))
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}

	requireContains(t, stdout, "Active:")
	requireContains(t, stdout, "0b5fd1a2")
	requireContains(t, stdout, "Transcoding")
	requireContains(t, stdout, "2/5")
	requireContains(t, stdout, "Concert Night")
	requireContains(t, stdout, "Waiting:")
	requireContains(t, stdout, "1080p")
	requireContains(t, stdout, "https://youtu.be/abc123")
}

func TestJobsCommandIdle(t *testing.T) {
	fake := &fakeDaemonAPI{jobs: &api.JobsResponse{}}
	srv := fake.start(t)

	stdout, _, err := runCLI(t, []string{"jobs"}, srv.URL, writeTestConfig(t))
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireContains(t, stdout, "Queue is idle")
}

func TestJobsCommandFinishedFlag(t *testing.T) {
	fake := &fakeDaemonAPI{
		jobs: &api.JobsResponse{
			Finished: []api.JobView{
				{
					ID:           "11111111-2222-4333-8444-555555555555",
					UserID:       7,
					Status:       "failed",
					ErrorMessage: "Video unavailable",
				},
			},
		},
	}
	srv := fake.start(t)

	stdout, _, err := runCLI(t, []string{"jobs", "--finished"}, srv.URL, writeTestConfig(t))
	if err != nil {
		t.Fatalf("jobs --finished: %v", err)
	}
	requireContains(t, stdout, "Finished:")
	requireContains(t, stdout, "Failed")
	requireContains(t, stdout, "Video unavailable")

	without, _, err := runCLI(t, []string{"jobs"}, srv.URL, writeTestConfig(t))
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	requireNotContains(t, without, "Finished:")
}

func TestJobsCommandDaemonDown(t *testing.T) {
	_, _, err := runCLI(t, []string{"jobs"}, "127.0.0.1:1", writeTestConfig(t))
	if err == nil {
		t.Fatal("expected error when the daemon is down")
	}
	requireContains(t, err.Error(), "daemon not reachable at 127.0.0.1:1")
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate short = %q", got)
	}
	if got := truncate("a very long string indeed", 10); got != "a very ..." {
		t.Fatalf("truncate long = %q", got)
	}
	if len(truncate("abcdef", 3)) != 3 {
		t.Fatal("truncate should respect tiny limits")
	}
}
