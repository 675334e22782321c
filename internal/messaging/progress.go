package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// ProgressThrottle suppresses repetitive progress edits while preserving
// signal when the action or percentage bucket changes. Transports rate-limit
// message edits, so the pipeline only pushes updates that cross a bucket
// boundary.
type ProgressThrottle struct {
	mu         sync.Mutex
	bucketSize float64
	lastAction string
	lastBucket int
}

// NewProgressThrottle constructs a throttle that admits updates when the
// percent crosses bucket boundaries (default 5%) or the action changes.
func NewProgressThrottle(bucketSize float64) *ProgressThrottle {
	if bucketSize <= 0 {
		bucketSize = 5
	}
	return &ProgressThrottle{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldReport reports whether an update should go out. Percent can be
// negative to indicate "unknown"; action is trimmed before comparison.
func (t *ProgressThrottle) ShouldReport(percent float64, action string) bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	action = strings.TrimSpace(action)
	emit := false
	if action != "" && action != t.lastAction {
		t.lastAction = action
		emit = true
		t.lastBucket = -1
	}
	if percent >= 0 {
		bucket := int(percent / t.bucketSize)
		if percent >= 100 {
			bucket = int(100 / t.bucketSize)
		}
		if bucket > t.lastBucket {
			t.lastBucket = bucket
			emit = true
		}
	}
	return emit
}

// Reset clears the throttle state when a new transfer starts.
func (t *ProgressThrottle) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastAction = ""
	t.lastBucket = -1
}

// FormatProgress renders a human status line for a transfer, e.g.
// "Downloading… 42% (123 MB / 293 MB)". With an unknown total it shows only
// the transferred amount.
func FormatProgress(action string, transferred, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%s… %s", action, humanize.Bytes(uint64(transferred)))
	}
	percent := float64(transferred) / float64(total) * 100
	return fmt.Sprintf("%s… %.0f%% (%s / %s)", action, percent,
		humanize.Bytes(uint64(transferred)), humanize.Bytes(uint64(total)))
}

// StatusReporter pushes throttled progress edits to a status message. A nil
// reporter or a zero ref is safe and does nothing, so callers do not need to
// branch on whether a status message exists.
type StatusReporter struct {
	client   Client
	ref      Ref
	throttle *ProgressThrottle
}

// NewStatusReporter wires a throttle to a transport status message.
func NewStatusReporter(client Client, ref Ref, bucketSize float64) *StatusReporter {
	return &StatusReporter{
		client:   client,
		ref:      ref,
		throttle: NewProgressThrottle(bucketSize),
	}
}

// Update edits the status message when the throttle admits the change.
// Edit failures are swallowed; progress reporting never fails a transfer.
func (r *StatusReporter) Update(ctx context.Context, action string, transferred, total int64) {
	if r == nil || r.client == nil || r.ref.IsZero() {
		return
	}
	percent := -1.0
	if total > 0 {
		percent = float64(transferred) / float64(total) * 100
	}
	if !r.throttle.ShouldReport(percent, action) {
		return
	}
	_ = r.client.EditText(ctx, r.ref, FormatProgress(action, transferred, total))
}

// Func adapts the reporter to a ProgressFunc for a fixed action label.
func (r *StatusReporter) Func(ctx context.Context, action string) ProgressFunc {
	return func(transferred, total int64) {
		r.Update(ctx, action, transferred, total)
	}
}
