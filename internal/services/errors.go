package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying task failures. Stage code wraps its errors
// with one of these via Wrap so callers can branch with errors.Is.
var (
	// ErrAcquisition marks a failed download of the source media. Fatal for
	// the task.
	ErrAcquisition = errors.New("acquisition failed")
	// ErrTransform marks a failed optional transform (tag injection,
	// thumbnail). Recoverable; the pipeline continues with degraded output.
	ErrTransform = errors.New("transform failed")
	// ErrRateLimited marks a platform flood-control signal observed during
	// delivery. Retried with backoff up to a bounded attempt count.
	ErrRateLimited = errors.New("rate limited")
	// ErrDelivery marks an upload that failed outright or exhausted its
	// flood retries. Fatal for the task.
	ErrDelivery = errors.New("delivery failed")
	// ErrDuplicate marks a submission suppressed by the dedupe window. Not
	// reported to the user.
	ErrDuplicate = errors.New("duplicate submission")
	// ErrValidation marks input rejected before entering the pipeline, such
	// as a user without a configured format template.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable daemon configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrQueueFull marks a submission rejected by the optional pending cap.
	ErrQueueFull = errors.New("queue full")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransform
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether the error aborts its task. Recoverable transform
// failures and suppressed duplicates are the only non-fatal classes.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrTransform) && !errors.Is(err, ErrDuplicate)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
