package services_test

import (
	"context"
	"testing"

	"telefetch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-42")
	ctx = services.WithItemIndex(ctx, 3)
	ctx = services.WithStage(ctx, "fetch")
	ctx = services.WithUserID(ctx, 9001)
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-42" {
		t.Fatalf("unexpected job id: %v %v", id, ok)
	}
	if idx, ok := services.ItemIndexFromContext(ctx); !ok || idx != 3 {
		t.Fatalf("unexpected item index: %v %v", idx, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "fetch" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if user, ok := services.UserIDFromContext(ctx); !ok || user != 9001 {
		t.Fatalf("unexpected user id: %v %v", user, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
