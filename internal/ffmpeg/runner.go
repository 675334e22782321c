package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"renamer/internal/fileutil"
	"renamer/internal/settings"
)

var commandContext = exec.CommandContext

// Runner invokes the configured ffmpeg and ffprobe binaries.
type Runner struct {
	ffmpegBinary  string
	ffprobeBinary string
}

// Option configures the runner.
type Option func(*Runner)

// WithFFmpeg overrides the ffmpeg binary path.
func WithFFmpeg(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.ffmpegBinary = binary
		}
	}
}

// WithFFprobe overrides the ffprobe binary path.
func WithFFprobe(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.ffprobeBinary = binary
		}
	}
}

// NewRunner constructs a runner using defaults.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{ffmpegBinary: "ffmpeg", ffprobeBinary: "ffprobe"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InjectTags copies input to output with container metadata rewritten from
// tags. Streams are copied without re-encoding. Success requires exit code
// zero and a non-empty output file; stderr is captured for diagnostics.
func (r *Runner) InjectTags(ctx context.Context, input, output string, tags settings.MetadataTags) error {
	if input == "" {
		return errors.New("input path required")
	}
	if output == "" {
		return errors.New("output path required")
	}

	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
	}
	if tags.Title != "" {
		args = append(args, "-metadata", "title="+tags.Title)
	}
	if tags.Artist != "" {
		args = append(args, "-metadata", "artist="+tags.Artist)
	}
	if tags.Author != "" {
		args = append(args, "-metadata", "author="+tags.Author)
	}
	if tags.VideoTitle != "" {
		args = append(args, "-metadata:s:v:0", "title="+tags.VideoTitle)
	}
	if tags.AudioTitle != "" {
		args = append(args, "-metadata:s:a:0", "title="+tags.AudioTitle)
	}
	if tags.SubtitleTitle != "" {
		args = append(args, "-metadata:s:s:0", "title="+tags.SubtitleTitle)
	}
	args = append(args, "-map", "0", "-c", "copy", output)

	cmd := commandContext(ctx, r.ffmpegBinary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg tag injection: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if !fileutil.NonEmptyFile(output) {
		return fmt.Errorf("ffmpeg tag injection produced no output at %s", output)
	}
	return nil
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration probes the container duration of a media file.
func (r *Runner) Duration(ctx context.Context, path string) (time.Duration, error) {
	if path == "" {
		return 0, errors.New("path required")
	}

	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	}
	cmd := commandContext(ctx, r.ffprobeBinary, args...) //nolint:gosec
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
