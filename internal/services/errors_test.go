package services_test

import (
	"errors"
	"strings"
	"testing"

	"telefetch/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcode", "mux", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode", "mux", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestRetryable(t *testing.T) {
	transient := services.Wrap(services.ErrFetchTransient, "fetch", "stream", "read reset", errors.New("io"))
	if !services.Retryable(transient) {
		t.Fatalf("expected transient fetch error to be retryable: %v", transient)
	}

	timeout := services.Wrap(services.ErrTimeout, "fetch", "stream", "deadline", nil)
	if !services.Retryable(timeout) {
		t.Fatalf("expected timeout to be retryable: %v", timeout)
	}

	permanent := services.Wrap(services.ErrFetchPermanent, "fetch", "resolve", "video removed", nil)
	if services.Retryable(permanent) {
		t.Fatalf("expected permanent fetch error to be terminal: %v", permanent)
	}

	tooLarge := services.Wrap(services.ErrTooLarge, "transcode", "verify", "still oversized", nil)
	if services.Retryable(tooLarge) {
		t.Fatalf("expected size failure to be terminal: %v", tooLarge)
	}

	if services.Retryable(nil) {
		t.Fatal("expected nil to be non-retryable")
	}
}

func TestDetailStripsMarker(t *testing.T) {
	err := services.Wrap(services.ErrResolution, "resolver", "lookup", "video is private", nil)
	detail := services.Detail(err)
	if strings.Contains(detail, services.ErrResolution.Error()) {
		t.Fatalf("expected marker text removed, got %q", detail)
	}
	if !strings.Contains(detail, "video is private") {
		t.Fatalf("expected message retained, got %q", detail)
	}

	if got := services.Detail(nil); got != "" {
		t.Fatalf("expected empty detail for nil error, got %q", got)
	}
}
