package testsupport

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"renamer/internal/messaging"
)

// UploadCall records one upload issued against the stub client.
type UploadCall struct {
	Kind       string
	ChatID     int64
	Attachment messaging.Attachment
}

// StubClient is an in-memory messaging.Client for tests. It writes downloads
// to disk, records every call, and pops scripted errors from UploadErrs on
// each upload so tests can exercise flood-wait and failure paths.
type StubClient struct {
	mu sync.Mutex

	DownloadSize       int64
	DownloadErr        error
	UploadErrs         []error
	ServePNGThumbnails bool

	Uploads []UploadCall
	Edits   []string
	Texts   []string
	Deletes []messaging.Ref
	Resends []messaging.Ref

	nextMessageID int64
}

var _ messaging.Client = (*StubClient)(nil)

func (c *StubClient) nextRef(chatID int64) messaging.Ref {
	c.nextMessageID++
	return messaging.Ref{ChatID: chatID, MessageID: c.nextMessageID}
}

func (c *StubClient) Download(ctx context.Context, ref messaging.Ref, destPath string, progress messaging.ProgressFunc) error {
	c.mu.Lock()
	err := c.DownloadErr
	size := c.DownloadSize
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if size <= 0 {
		size = 1
	}
	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkErr != nil {
		return mkErr
	}
	if wrErr := os.WriteFile(destPath, make([]byte, size), 0o644); wrErr != nil {
		return wrErr
	}
	if progress != nil {
		progress(size, size)
	}
	return nil
}

func (c *StubClient) DownloadFile(ctx context.Context, fileRef string, destPath string) error {
	c.mu.Lock()
	err := c.DownloadErr
	servePNG := c.ServePNGThumbnails
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if mkErr := os.MkdirAll(filepath.Dir(destPath), 0o755); mkErr != nil {
		return mkErr
	}
	if servePNG {
		f, createErr := os.Create(destPath)
		if createErr != nil {
			return createErr
		}
		defer f.Close()
		return png.Encode(f, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	}
	return os.WriteFile(destPath, []byte(fileRef), 0o644)
}

func (c *StubClient) upload(kind string, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	c.mu.Lock()
	var err error
	if len(c.UploadErrs) > 0 {
		err = c.UploadErrs[0]
		c.UploadErrs = c.UploadErrs[1:]
	}
	if err == nil {
		c.Uploads = append(c.Uploads, UploadCall{Kind: kind, ChatID: chatID, Attachment: att})
	}
	ref := c.nextRef(chatID)
	c.mu.Unlock()
	if err != nil {
		return messaging.Ref{}, err
	}
	if progress != nil {
		progress(1, 1)
	}
	return ref, nil
}

func (c *StubClient) UploadDocument(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload("document", chatID, att, progress)
}

func (c *StubClient) UploadVideo(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload("video", chatID, att, progress)
}

func (c *StubClient) UploadAudio(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload("audio", chatID, att, progress)
}

func (c *StubClient) SendText(ctx context.Context, chatID int64, text string) (messaging.Ref, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Texts = append(c.Texts, text)
	return c.nextRef(chatID), nil
}

func (c *StubClient) EditText(ctx context.Context, ref messaging.Ref, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Edits = append(c.Edits, text)
	return nil
}

func (c *StubClient) Delete(ctx context.Context, ref messaging.Ref) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Deletes = append(c.Deletes, ref)
	return nil
}

func (c *StubClient) Resend(ctx context.Context, ref messaging.Ref, toChatID int64) (messaging.Ref, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Resends = append(c.Resends, ref)
	return c.nextRef(toChatID), nil
}

// UploadCount returns the number of successful uploads so far.
func (c *StubClient) UploadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Uploads)
}

// LastEdit returns the most recent status edit, or "" when none happened.
func (c *StubClient) LastEdit() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Edits) == 0 {
		return ""
	}
	return c.Edits[len(c.Edits)-1]
}
