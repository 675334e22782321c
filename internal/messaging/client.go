package messaging

import (
	"context"
	"time"

	"renamer/internal/naming"
)

// Ref identifies a message on the transport. FileRef is the transport's
// handle to the message's media, when it has any.
type Ref struct {
	ChatID    int64
	MessageID int64
	FileRef   string
}

// IsZero reports whether the ref points at nothing.
func (r Ref) IsZero() bool { return r.ChatID == 0 && r.MessageID == 0 }

// Incoming describes a media message submitted for renaming.
type Incoming struct {
	Ref      Ref
	UserID   int64
	FileName string
	FileSize int64
	Kind     naming.Kind
}

// Attachment carries everything needed to deliver a renamed file.
type Attachment struct {
	Path      string
	FileName  string
	Caption   string
	Thumbnail string
	Duration  time.Duration
}

// ProgressFunc receives transfer progress. Total may be zero when the
// transport does not know the size up front.
type ProgressFunc func(transferred, total int64)

// Client is the transport contract. Upload methods return the ref of the
// delivered message. All methods honor context cancellation.
type Client interface {
	Download(ctx context.Context, ref Ref, destPath string, progress ProgressFunc) error
	DownloadFile(ctx context.Context, fileRef string, destPath string) error
	UploadDocument(ctx context.Context, chatID int64, att Attachment, progress ProgressFunc) (Ref, error)
	UploadVideo(ctx context.Context, chatID int64, att Attachment, progress ProgressFunc) (Ref, error)
	UploadAudio(ctx context.Context, chatID int64, att Attachment, progress ProgressFunc) (Ref, error)
	SendText(ctx context.Context, chatID int64, text string) (Ref, error)
	EditText(ctx context.Context, ref Ref, text string) error
	Delete(ctx context.Context, ref Ref) error
	Resend(ctx context.Context, ref Ref, toChatID int64) (Ref, error)
}

// Upload dispatches to the upload method matching kind. Unrecognized kinds
// fall back to document delivery.
func Upload(ctx context.Context, client Client, kind naming.Kind, chatID int64, att Attachment, progress ProgressFunc) (Ref, error) {
	switch kind {
	case naming.KindVideo:
		return client.UploadVideo(ctx, chatID, att, progress)
	case naming.KindAudio:
		return client.UploadAudio(ctx, chatID, att, progress)
	default:
		return client.UploadDocument(ctx, chatID, att, progress)
	}
}
