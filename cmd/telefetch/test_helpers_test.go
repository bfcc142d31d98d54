package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telefetch/internal/api"
)

// fakeDaemonAPI serves canned admin API payloads so command output can be
// asserted without a running daemon.
type fakeDaemonAPI struct {
	status  *api.StatusResponse
	jobs    *api.JobsResponse
	usage   *api.UsageResponse
	scratch *api.ScratchResponse

	lastUsageQuery string
}

func (f *fakeDaemonAPI) start(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(t, w, f.status)
	})
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(t, w, f.jobs)
	})
	mux.HandleFunc("/api/usage", func(w http.ResponseWriter, r *http.Request) {
		f.lastUsageQuery = r.URL.RawQuery
		writeFakeJSON(t, w, f.usage)
	})
	mux.HandleFunc("/api/scratch", func(w http.ResponseWriter, r *http.Request) {
		writeFakeJSON(t, w, f.scratch)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeFakeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if payload == nil {
		http.Error(w, `{"error":"not stubbed"}`, http.StatusInternalServerError)
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode fake payload: %v", err)
	}
}

// writeTestConfig writes a config file whose paths live under the test's
// temp directory and returns its path.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"scratch", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	content := fmt.Sprintf(
		"[paths]\nscratch_dir = %q\nlog_dir = %q\ndb_path = %q\napi_bind = %q\n",
		filepath.Join(base, "scratch"),
		filepath.Join(base, "logs"),
		filepath.Join(base, "telefetch.db"),
		"127.0.0.1:0",
	)
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, apiAddr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if apiAddr != "" {
		flags = append(flags, "--api", apiAddr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q to not contain %q", output, substr)
	}
}
