package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"renamer/internal/settings"
)

func stubCommand(t *testing.T, fn func(name string, args []string) *exec.Cmd) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return fn(name, args)
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestInjectTagsBuildsMetadataArgs(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mkv")
	output := filepath.Join(dir, "out.mkv")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var capturedArgs []string
	stubCommand(t, func(name string, args []string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		// Simulate a successful mux by producing the output file.
		if err := os.WriteFile(output, []byte("muxed"), 0o644); err != nil {
			t.Fatalf("write fake output: %v", err)
		}
		return exec.Command("true")
	})

	runner := NewRunner(WithFFmpeg("/usr/bin/ffmpeg"))
	tags := settings.MetadataTags{Title: "My Show", Artist: "Studio", VideoTitle: "S01E01"}
	if err := runner.InjectTags(context.Background(), input, output, tags); err != nil {
		t.Fatalf("InjectTags failed: %v", err)
	}

	joined := map[string]bool{}
	for i := 0; i+1 < len(capturedArgs); i++ {
		joined[capturedArgs[i]+" "+capturedArgs[i+1]] = true
	}
	for _, want := range []string{
		"-metadata title=My Show",
		"-metadata artist=Studio",
		"-metadata:s:v:0 title=S01E01",
		"-c copy",
		"-map 0",
	} {
		if !joined[want] {
			t.Errorf("expected args to contain %q, got %v", want, capturedArgs)
		}
	}
	if capturedArgs[len(capturedArgs)-1] != output {
		t.Errorf("expected output path last, got %v", capturedArgs)
	}
}

func TestInjectTagsRequiresNonEmptyOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mkv")
	output := filepath.Join(dir, "out.mkv")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubCommand(t, func(name string, args []string) *exec.Cmd {
		// Exit zero without producing any output file.
		return exec.Command("true")
	})

	runner := NewRunner()
	if err := runner.InjectTags(context.Background(), input, output, settings.MetadataTags{}); err == nil {
		t.Fatal("expected error when output file is missing")
	}
}

func TestInjectTagsCapturesStderr(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.mkv")
	if err := os.WriteFile(input, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stubCommand(t, func(name string, args []string) *exec.Cmd {
		return exec.Command("sh", "-c", "echo 'boom' >&2; exit 1")
	})

	runner := NewRunner()
	err := runner.InjectTags(context.Background(), input, filepath.Join(dir, "out.mkv"), settings.MetadataTags{})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if got := err.Error(); !strings.Contains(got, "boom") {
		t.Fatalf("expected stderr in error, got %q", got)
	}
}

func TestDurationParsesProbeOutput(t *testing.T) {
	stubCommand(t, func(name string, args []string) *exec.Cmd {
		return exec.Command("echo", `{"format":{"duration":"123.5"}}`)
	})

	runner := NewRunner(WithFFprobe("/usr/bin/ffprobe"))
	got, err := runner.Duration(context.Background(), "/media/file.mkv")
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	want := time.Duration(123.5 * float64(time.Second))
	if got != want {
		t.Fatalf("duration = %s, want %s", got, want)
	}
}

func TestDurationMissingField(t *testing.T) {
	stubCommand(t, func(name string, args []string) *exec.Cmd {
		return exec.Command("echo", `{"format":{}}`)
	})

	runner := NewRunner()
	if _, err := runner.Duration(context.Background(), "/media/file.mkv"); err == nil {
		t.Fatal("expected error when duration is absent")
	}
}
