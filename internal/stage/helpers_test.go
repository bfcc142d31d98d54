package stage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telefetch/internal/services"
)

func TestRequireFile_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	size, err := RequireFile(path, "fetched file")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if size != 4 {
		t.Fatalf("size = %d, want 4", size)
	}
}

func TestRequireFile_EmptyPath(t *testing.T) {
	_, err := RequireFile("   ", "fetched file")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireFile_Missing(t *testing.T) {
	_, err := RequireFile(filepath.Join(t.TempDir(), "nope.mp4"), "fetched file")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireFile_Directory(t *testing.T) {
	_, err := RequireFile(t.TempDir(), "fetched file")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireFile_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := RequireFile(path, "fetched file")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Fatalf("expected message to mention empty file, got %v", err)
	}
}
