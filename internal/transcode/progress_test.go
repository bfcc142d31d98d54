package transcode

import (
	"testing"
	"time"
)

func TestProgressSnapshotApply(t *testing.T) {
	snapshot := &progressSnapshot{}

	lines := []string{
		"frame=120",
		"fps=48.0",
		"out_time_us=5000000",
		"speed=2.5x",
	}
	for _, line := range lines {
		if _, emitted := snapshot.apply(line, 10); emitted {
			t.Fatalf("line %q should not emit an update", line)
		}
	}

	update, emitted := snapshot.apply("progress=continue", 10)
	if !emitted {
		t.Fatal("progress=continue should emit an update")
	}
	if update.Percent != 50 {
		t.Fatalf("expected 50 percent, got %f", update.Percent)
	}
	if update.OutTime != 5*time.Second {
		t.Fatalf("expected 5s out time, got %s", update.OutTime)
	}
	if update.FPS != 48 {
		t.Fatalf("expected fps 48, got %f", update.FPS)
	}
	if update.Speed != 2.5 {
		t.Fatalf("expected speed 2.5, got %f", update.Speed)
	}

	update, emitted = snapshot.apply("progress=end", 10)
	if !emitted || update.Percent != 100 {
		t.Fatalf("progress=end should report 100 percent, got %+v emitted=%v", update, emitted)
	}
}

func TestProgressSnapshotOutTimeMillisKeyIsMicroseconds(t *testing.T) {
	snapshot := &progressSnapshot{}
	snapshot.apply("out_time_ms=2500000", 0)
	update, emitted := snapshot.apply("progress=continue", 0)
	if !emitted {
		t.Fatal("expected update")
	}
	if update.OutTime != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s out time, got %s", update.OutTime)
	}
	if update.Percent != 0 {
		t.Fatalf("expected zero percent without duration, got %f", update.Percent)
	}
}

func TestProgressSnapshotClampsPercent(t *testing.T) {
	snapshot := &progressSnapshot{}
	snapshot.apply("out_time_us=20000000", 0)
	update, emitted := snapshot.apply("progress=continue", 10)
	if !emitted {
		t.Fatal("expected update")
	}
	if update.Percent != 100 {
		t.Fatalf("expected clamp to 100 percent, got %f", update.Percent)
	}
}

func TestProgressSnapshotIgnoresMalformedLines(t *testing.T) {
	snapshot := &progressSnapshot{}
	for _, line := range []string{"", "no separator here", "out_time_us=not-a-number", "speed=fastx"} {
		if _, emitted := snapshot.apply(line, 10); emitted {
			t.Fatalf("line %q should not emit an update", line)
		}
	}
	update, emitted := snapshot.apply("progress=continue", 10)
	if !emitted {
		t.Fatal("expected update")
	}
	if update.OutTime != 0 || update.Speed != 0 {
		t.Fatalf("malformed values should be ignored, got %+v", update)
	}
}
