package admission

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"renamer/internal/messaging"
	"renamer/internal/naming"
)

// Task is one file's journey through the pipeline. It is owned by the queue
// until dispatch, then by the running pipeline instance.
type Task struct {
	ID         string
	UserID     int64
	Source     messaging.Ref
	FileName   string
	FileSize   int64
	Kind       naming.Kind
	EnqueuedAt time.Time
}

// NewTask builds a Task from an inbound file event.
func NewTask(in messaging.Incoming) Task {
	return Task{
		ID:         uuid.NewString(),
		UserID:     in.UserID,
		Source:     in.Ref,
		FileName:   in.FileName,
		FileSize:   in.FileSize,
		Kind:       in.Kind,
		EnqueuedAt: time.Now(),
	}
}

// identifier keys duplicate suppression: same user, same filename, same
// size counts as the same file.
func (t Task) identifier() string {
	return fmt.Sprintf("%d|%s|%d", t.UserID, t.FileName, t.FileSize)
}
