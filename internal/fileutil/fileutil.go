// Package fileutil provides filesystem helpers for task-scoped scratch
// space. Each pipeline task works inside its own workspace directory so
// cleanup is a single recursive remove.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Workspace is a task-scoped scratch directory with fixed subdirectories
// for downloads, tag-injected outputs, and thumbnails.
type Workspace struct {
	Root string
}

// NewWorkspace creates the scratch directory tree for a task under baseDir.
func NewWorkspace(baseDir, taskID string) (*Workspace, error) {
	if taskID == "" {
		return nil, fmt.Errorf("workspace requires a task id")
	}
	root := filepath.Join(baseDir, taskID)
	for _, dir := range []string{root, filepath.Join(root, "download"), filepath.Join(root, "tagged"), filepath.Join(root, "thumb")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create workspace dir %s: %w", dir, err)
		}
	}
	return &Workspace{Root: root}, nil
}

// DownloadPath returns the download target for the given filename.
func (w *Workspace) DownloadPath(filename string) string {
	return filepath.Join(w.Root, "download", filename)
}

// TaggedPath returns the tag-injection output path for the given filename.
func (w *Workspace) TaggedPath(filename string) string {
	return filepath.Join(w.Root, "tagged", filename)
}

// ThumbnailPath returns the normalized thumbnail path.
func (w *Workspace) ThumbnailPath() string {
	return filepath.Join(w.Root, "thumb", "thumbnail.jpg")
}

// Cleanup removes the whole workspace tree. Safe to call more than once.
func (w *Workspace) Cleanup() error {
	if w == nil || w.Root == "" {
		return nil
	}
	return os.RemoveAll(w.Root)
}

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// NonEmptyFile reports whether path exists as a regular file with size > 0.
func NonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
