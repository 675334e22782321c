package daemon_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"renamer/internal/admission"
	"renamer/internal/config"
	"renamer/internal/daemon"
	"renamer/internal/ffmpeg"
	"renamer/internal/messaging"
	"renamer/internal/naming"
	"renamer/internal/pipeline"
	"renamer/internal/sequence"
	"renamer/internal/services"
	"renamer/internal/settings"
	"renamer/internal/testsupport"
)

type harness struct {
	cfg    *config.Config
	client *testsupport.StubClient
	store  *settings.Store
	daemon *daemon.Daemon
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	client := &testsupport.StubClient{DownloadSize: 32}
	store := testsupport.MustOpenSettings(t, cfg)

	var executor *pipeline.Executor
	ctrl := admission.NewController(cfg, nil, func(ctx context.Context, task admission.Task) {
		_ = executor.Run(ctx, task)
	})
	executor = pipeline.New(cfg, client, store, ffmpeg.NewRunner(),
		ctrl.Downloads(), ctrl.Uploads(), nil)

	seq := sequence.NewManager(cfg, client, nil)
	d, err := daemon.New(cfg, client, store, executor, ctrl, seq, nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon start failed: %v", err)
	}
	t.Cleanup(d.Stop)
	return &harness{cfg: cfg, client: client, store: store, daemon: d}
}

func incoming(userID int64, filename string) messaging.Incoming {
	return messaging.Incoming{
		Ref:      messaging.Ref{ChatID: userID, MessageID: 1},
		UserID:   userID,
		FileName: filename,
		FileSize: 32,
		Kind:     naming.KindVideo,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHandleFileRunsPipeline(t *testing.T) {
	h := newHarness(t)
	if err := h.store.SetFormatTemplate(context.Background(), 1, "Ep {episode}"); err != nil {
		t.Fatal(err)
	}

	if err := h.daemon.HandleFile(context.Background(), incoming(1, "Show.E03.mkv")); err != nil {
		t.Fatalf("HandleFile failed: %v", err)
	}
	waitFor(t, func() bool { return h.client.UploadCount() == 1 })

	if got := h.client.Uploads[0].Attachment.FileName; got != "Ep 03.mkv" {
		t.Fatalf("delivered name = %q", got)
	}
}

func TestHandleFileWithoutTemplateRejects(t *testing.T) {
	h := newHarness(t)
	err := h.daemon.HandleFile(context.Background(), incoming(1, "Show.E03.mkv"))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if h.client.UploadCount() != 0 {
		t.Fatal("no upload expected")
	}
}

func TestHandleFileSequenceShortCircuit(t *testing.T) {
	h := newHarness(t)
	if err := h.store.SetFormatTemplate(context.Background(), 1, "{episode}"); err != nil {
		t.Fatal(err)
	}
	if err := h.daemon.StartSequence(context.Background(), 1, 1); err != nil {
		t.Fatalf("StartSequence failed: %v", err)
	}

	files := []messaging.Incoming{
		{Ref: messaging.Ref{ChatID: 1, MessageID: 10}, UserID: 1, FileName: "Show.E02.mkv", FileSize: 32, Kind: naming.KindVideo},
		{Ref: messaging.Ref{ChatID: 1, MessageID: 11}, UserID: 1, FileName: "Show.E01.mkv", FileSize: 32, Kind: naming.KindVideo},
	}
	for _, in := range files {
		if err := h.daemon.HandleFile(context.Background(), in); err != nil {
			t.Fatalf("HandleFile %s failed: %v", in.FileName, err)
		}
	}
	// Collected files never reach the pipeline.
	time.Sleep(50 * time.Millisecond)
	if h.client.UploadCount() != 0 {
		t.Fatal("sequence mode must not upload")
	}

	if err := h.daemon.EndSequence(context.Background(), 1, 1); err != nil {
		t.Fatalf("EndSequence failed: %v", err)
	}
	if len(h.client.Resends) != 2 {
		t.Fatalf("resends = %d, want 2", len(h.client.Resends))
	}
	// E01 arrived second but replays first.
	if h.client.Resends[0].MessageID != 11 || h.client.Resends[1].MessageID != 10 {
		t.Fatalf("unexpected resend order: %v", h.client.Resends)
	}
}

func TestSecondDaemonInstanceRefused(t *testing.T) {
	h := newHarness(t)

	client := &testsupport.StubClient{}
	ctrl := admission.NewController(h.cfg, nil, func(ctx context.Context, task admission.Task) {})
	executor := pipeline.New(h.cfg, client, h.store, ffmpeg.NewRunner(), ctrl.Downloads(), ctrl.Uploads(), nil)
	seq := sequence.NewManager(h.cfg, client, nil)
	second, err := daemon.New(h.cfg, client, h.store, executor, ctrl, seq, nil)
	if err != nil {
		t.Fatalf("daemon.New failed: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to start")
	}
}

func TestSequenceLifecycleErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.EndSequence(ctx, 1, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for end without start, got %v", err)
	}
	if err := h.daemon.StartSequence(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := h.daemon.StartSequence(ctx, 1, 1); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for double start, got %v", err)
	}
	if err := h.daemon.CancelSequence(ctx, 1, 1); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
}

func TestQueueStatusEmptyQueue(t *testing.T) {
	h := newHarness(t)
	h.daemon.QueueStatus(context.Background(), 1, 1)
	if len(h.client.Texts) != 1 || h.client.Texts[0] != "Queue is empty." {
		t.Fatalf("unexpected acks: %v", h.client.Texts)
	}
}

func TestSequenceStatus(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.daemon.SequenceStatus(ctx, 1, 1)
	if got := h.client.Texts[len(h.client.Texts)-1]; got != "No sequence in progress." {
		t.Fatalf("ack = %q", got)
	}

	if err := h.daemon.StartSequence(ctx, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := h.daemon.HandleFile(ctx, incoming(1, "Show.E05.mkv")); err != nil {
		t.Fatalf("HandleFile failed: %v", err)
	}
	h.daemon.SequenceStatus(ctx, 1, 1)
	if got := h.client.Texts[len(h.client.Texts)-1]; got != "Sequence collecting: 1 files so far." {
		t.Fatalf("ack = %q", got)
	}
}

func TestSetTemplateCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.SetTemplate(ctx, 1, 1, "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty template, got %v", err)
	}
	if err := h.daemon.SetTemplate(ctx, 1, 1, "Ep {episode}"); err != nil {
		t.Fatalf("SetTemplate failed: %v", err)
	}
	s, err := h.store.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.FormatTemplate != "Ep {episode}" {
		t.Fatalf("stored template = %q", s.FormatTemplate)
	}
}

func TestSetMediaPreferenceCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.SetMediaPreference(ctx, 1, 1, "hologram"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown kind, got %v", err)
	}
	if err := h.daemon.SetMediaPreference(ctx, 1, 1, "audio"); err != nil {
		t.Fatalf("SetMediaPreference failed: %v", err)
	}
	s, err := h.store.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.MediaPreference != "audio" {
		t.Fatalf("stored preference = %q", s.MediaPreference)
	}
}

func TestSetMetadataCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.SetMetadata(ctx, 1, 1, "maybe"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := h.daemon.SetMetadata(ctx, 1, 1, "on"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	s, err := h.store.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !s.MetadataEnabled {
		t.Fatal("metadata should be enabled")
	}
}

func TestSetDestinationCommand(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.SetDestination(ctx, 1, 1, "not-a-number"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := h.daemon.SetDestination(ctx, 1, 1, "-100200300"); err != nil {
		t.Fatalf("SetDestination failed: %v", err)
	}
	s, err := h.store.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Destination != -100200300 {
		t.Fatalf("destination = %d", s.Destination)
	}

	if err := h.daemon.SetDestination(ctx, 1, 1, ""); err != nil {
		t.Fatalf("clear destination failed: %v", err)
	}
	s, err = h.store.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Destination != 0 {
		t.Fatalf("destination after clear = %d", s.Destination)
	}
}

func TestShowSettingsRendersCurrentState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.daemon.SetTemplate(ctx, 1, 1, "{title} E{episode}"); err != nil {
		t.Fatal(err)
	}
	if err := h.daemon.SetCaption(ctx, 1, 1, "New: {filename}"); err != nil {
		t.Fatal(err)
	}
	if err := h.daemon.ShowSettings(ctx, 1, 1); err != nil {
		t.Fatalf("ShowSettings failed: %v", err)
	}

	got := h.client.Texts[len(h.client.Texts)-1]
	for _, want := range []string{"Template: {title} E{episode}", "Caption: New: {filename}", "Media kind: (not set)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("settings ack missing %q:\n%s", want, got)
		}
	}
}

func TestStatusReflectsRunning(t *testing.T) {
	h := newHarness(t)
	st := h.daemon.Status()
	if !st.Running {
		t.Fatal("daemon should report running")
	}
	if st.SettingsDB == "" || st.LockFilePath == "" {
		t.Fatalf("incomplete status: %#v", st)
	}
}
