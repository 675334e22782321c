package messaging

import (
	"errors"
	"fmt"
	"time"

	"renamer/internal/services"
)

// FloodWaitError reports the transport asking the caller to back off.
// RetryAfter is how long the transport wants us to wait before retrying.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.RetryAfter)
}

// Is makes FloodWaitError match services.ErrRateLimited under errors.Is.
func (e *FloodWaitError) Is(target error) bool {
	return target == services.ErrRateLimited
}

// FloodWait extracts the requested backoff from an error chain. The second
// return is false when the error is not a flood wait.
func FloodWait(err error) (time.Duration, bool) {
	var fw *FloodWaitError
	if errors.As(err, &fw) {
		return fw.RetryAfter, true
	}
	return 0, false
}
