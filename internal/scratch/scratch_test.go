package scratch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"telefetch/internal/logging"
)

func makeAgedDir(t *testing.T, root, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("set dir time: %v", err)
	}
	return dir
}

func TestSweepInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := Sweep(dir, time.Hour, nil, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Failures) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestSweepRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := makeAgedDir(t, tmpDir, "job-old", 2*time.Hour)
	recentDir := makeAgedDir(t, tmpDir, "job-recent", 10*time.Minute)

	result := Sweep(tmpDir, time.Hour, nil, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestSweepKeepsActiveDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	activeDir := makeAgedDir(t, tmpDir, "job-active", 3*time.Hour)
	staleDir := makeAgedDir(t, tmpDir, "job-stale", 3*time.Hour)

	keep := map[string]struct{}{"job-active": {}}
	result := Sweep(tmpDir, time.Hour, keep, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != staleDir {
		t.Fatalf("expected only %s removed, got %v", staleDir, result.Removed)
	}
	if _, err := os.Stat(activeDir); err != nil {
		t.Error("active directory should still exist")
	}
}

func TestSweepIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "stray.mp4")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, stamp, stamp); err != nil {
		t.Fatalf("set file time: %v", err)
	}

	result := Sweep(tmpDir, time.Hour, nil, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Errorf("expected no removals for files, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("top-level file should still exist")
	}
}

func TestListReportsSizes(t *testing.T) {
	tmpDir := t.TempDir()
	jobDir := filepath.Join(tmpDir, "job-1")
	if err := os.MkdirAll(filepath.Join(jobDir, "item-01"), 0o755); err != nil {
		t.Fatalf("create nested dir: %v", err)
	}
	payload := []byte("0123456789")
	if err := os.WriteFile(filepath.Join(jobDir, "item-01", "video.mp4"), payload, 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	dirs, err := List(tmpDir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(dirs) != 1 {
		t.Fatalf("expected 1 dir, got %d", len(dirs))
	}
	if dirs[0].Name != "job-1" {
		t.Errorf("unexpected name %q", dirs[0].Name)
	}
	if dirs[0].Size != int64(len(payload)) {
		t.Errorf("expected size %d, got %d", len(payload), dirs[0].Size)
	}
}

func TestFreeSpaceReportsCapacity(t *testing.T) {
	total, free, err := FreeSpace(t.TempDir())
	if err != nil {
		t.Fatalf("FreeSpace: %v", err)
	}
	if total == 0 {
		t.Fatal("expected non-zero filesystem size")
	}
	if free > total {
		t.Fatalf("free %d exceeds total %d", free, total)
	}
}

func TestFreeSpaceMissingPath(t *testing.T) {
	if _, _, err := FreeSpace(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestListMissingDirectory(t *testing.T) {
	dirs, err := List(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if dirs != nil {
		t.Errorf("expected nil for missing directory, got %v", dirs)
	}
}
