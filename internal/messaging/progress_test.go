package messaging

import (
	"errors"
	"testing"
	"time"

	"renamer/internal/services"
)

func TestProgressThrottleBuckets(t *testing.T) {
	th := NewProgressThrottle(5)

	if !th.ShouldReport(0, "Downloading") {
		t.Fatal("first update should report")
	}
	if th.ShouldReport(2, "Downloading") {
		t.Fatal("same bucket should be suppressed")
	}
	if !th.ShouldReport(7, "Downloading") {
		t.Fatal("new bucket should report")
	}
	if !th.ShouldReport(3, "Uploading") {
		t.Fatal("action change should report")
	}
	if !th.ShouldReport(100, "Uploading") {
		t.Fatal("completion should report")
	}
	if th.ShouldReport(100, "Uploading") {
		t.Fatal("repeated completion should be suppressed")
	}
}

func TestProgressThrottleReset(t *testing.T) {
	th := NewProgressThrottle(5)
	th.ShouldReport(50, "Downloading")
	th.Reset()
	if !th.ShouldReport(50, "Downloading") {
		t.Fatal("reset should admit the next update")
	}
}

func TestFormatProgress(t *testing.T) {
	got := FormatProgress("Downloading", 50, 200)
	want := "Downloading… 25% (50 B / 200 B)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := FormatProgress("Uploading", 1024, 0); got != "Uploading… 1.0 kB" {
		t.Fatalf("unknown total: got %q", got)
	}
}

func TestFloodWaitClassification(t *testing.T) {
	err := &FloodWaitError{RetryAfter: 3 * time.Second}
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatal("flood wait should match ErrRateLimited")
	}
	wait, ok := FloodWait(err)
	if !ok || wait != 3*time.Second {
		t.Fatalf("FloodWait = (%s, %v)", wait, ok)
	}

	wrapped := services.Wrap(services.ErrDelivery, "deliver", "upload", "send failed", err)
	wait, ok = FloodWait(wrapped)
	if !ok || wait != 3*time.Second {
		t.Fatalf("wrapped FloodWait = (%s, %v)", wait, ok)
	}

	if _, ok := FloodWait(errors.New("other")); ok {
		t.Fatal("plain error should not be a flood wait")
	}
}
