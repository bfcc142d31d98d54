package main

import (
	"os"
	"path/filepath"
	"testing"

	"telefetch/internal/config"
)

func TestLogsCommandPrintsTrailingLines(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cfg, _, _, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "telefetch.log")
	if err := os.WriteFile(logPath, []byte("first\nsecond\nthird\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := runCLI(t, []string{"logs", "-n", "2"}, "", cfgPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireNotContains(t, stdout, "first")
	requireContains(t, stdout, "second")
	requireContains(t, stdout, "third")
}

func TestLogsCommandMissingFile(t *testing.T) {
	cfgPath := writeTestConfig(t)

	stdout, _, err := runCLI(t, []string{"logs"}, "", cfgPath)
	if err != nil {
		t.Fatalf("logs with no file: %v", err)
	}
	if stdout != "" {
		t.Fatalf("expected no output, got %q", stdout)
	}
}
