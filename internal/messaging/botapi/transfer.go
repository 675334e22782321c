package botapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"renamer/internal/logging"
	"renamer/internal/messaging"
)

type fileResult struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size"`
	FilePath string `json:"file_path"`
}

func (c *Client) downloadByFileRef(ctx context.Context, fileRef, destPath string, progress messaging.ProgressFunc) error {
	params := url.Values{}
	params.Set("file_id", fileRef)
	raw, err := c.call(ctx, "getFile", params)
	if err != nil {
		return err
	}
	var file fileResult
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("decode getFile result: %w", err)
	}
	if file.FilePath == "" {
		return fmt.Errorf("file %s has no download path", fileRef)
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.transferClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download: unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	total := file.FileSize
	if total == 0 {
		total = resp.ContentLength
	}
	var src io.Reader = resp.Body
	if progress != nil {
		src = &countingReader{r: resp.Body, total: total, report: progress}
	}
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	if err := out.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", destPath, err)
	}
	c.logger.Debug("download complete",
		logging.String("path", destPath),
		logging.Int64("bytes", total))
	return nil
}

type countingReader struct {
	r           io.Reader
	total       int64
	transferred int64
	report      messaging.ProgressFunc
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.transferred += int64(n)
		cr.report(cr.transferred, cr.total)
	}
	return n, err
}

func (c *Client) UploadDocument(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload(ctx, "sendDocument", "document", chatID, att, progress)
}

func (c *Client) UploadVideo(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload(ctx, "sendVideo", "video", chatID, att, progress)
}

func (c *Client) UploadAudio(ctx context.Context, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	return c.upload(ctx, "sendAudio", "audio", chatID, att, progress)
}

func (c *Client) upload(ctx context.Context, method, field string, chatID int64, att messaging.Attachment, progress messaging.ProgressFunc) (messaging.Ref, error) {
	info, err := os.Stat(att.Path)
	if err != nil {
		return messaging.Ref{}, fmt.Errorf("stat upload source: %w", err)
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(writer, field, chatID, att, info.Size(), progress))
	}()

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return messaging.Ref{}, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return messaging.Ref{}, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := decodeEnvelope(method, resp.Body)
	if err != nil {
		return messaging.Ref{}, err
	}
	var msg messageResult
	if err := json.Unmarshal(raw, &msg); err != nil {
		return messaging.Ref{}, fmt.Errorf("decode %s result: %w", method, err)
	}
	return messaging.Ref{ChatID: msg.Chat.ID, MessageID: msg.MessageID}, nil
}

func writeUploadForm(writer *multipart.Writer, field string, chatID int64, att messaging.Attachment, size int64, progress messaging.ProgressFunc) error {
	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if att.Caption != "" {
		if err := writer.WriteField("caption", att.Caption); err != nil {
			return err
		}
	}
	if att.Duration > 0 && field != "document" {
		if err := writer.WriteField("duration", strconv.Itoa(int(att.Duration.Seconds()))); err != nil {
			return err
		}
	}

	part, err := writer.CreateFormFile(field, att.FileName)
	if err != nil {
		return err
	}
	src, err := os.Open(att.Path)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer src.Close()
	var reader io.Reader = src
	if progress != nil {
		reader = &countingReader{r: src, total: size, report: progress}
	}
	if _, err := io.Copy(part, reader); err != nil {
		return fmt.Errorf("stream upload: %w", err)
	}

	if att.Thumbnail != "" {
		thumbPart, err := writer.CreateFormFile("thumbnail", filepath.Base(att.Thumbnail))
		if err != nil {
			return err
		}
		thumb, err := os.Open(att.Thumbnail)
		if err != nil {
			return fmt.Errorf("open thumbnail: %w", err)
		}
		defer thumb.Close()
		if _, err := io.Copy(thumbPart, thumb); err != nil {
			return fmt.Errorf("stream thumbnail: %w", err)
		}
	}
	return writer.Close()
}
