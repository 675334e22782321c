package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"renamer/internal/admission"
	"renamer/internal/config"
	"renamer/internal/ffmpeg"
	"renamer/internal/fileutil"
	"renamer/internal/imaging"
	"renamer/internal/logging"
	"renamer/internal/messaging"
	"renamer/internal/naming"
	"renamer/internal/services"
	"renamer/internal/settings"
	"renamer/internal/textutil"
)

// userErrorLimit bounds the length of error text shown to users.
const userErrorLimit = 200

// Executor runs admitted tasks through the rename pipeline.
type Executor struct {
	cfg       *config.Config
	client    messaging.Client
	store     *settings.Store
	runner    *ffmpeg.Runner
	downloads *admission.Semaphore
	uploads   *admission.Semaphore
	logger    *slog.Logger

	// sleep is stubbed in tests so flood backoff does not slow the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs an executor. The semaphores are shared with the admission
// controller so queue slots and transfer capacity stay decoupled.
func New(cfg *config.Config, client messaging.Client, store *settings.Store, runner *ffmpeg.Runner, downloads, uploads *admission.Semaphore, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		cfg:       cfg,
		client:    client,
		store:     store,
		runner:    runner,
		downloads: downloads,
		uploads:   uploads,
		logger:    logger.With(logging.String(logging.FieldComponent, "pipeline")),
		sleep:     sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one task to completion, including cleanup. The returned
// error is the fatal failure when one occurred; recoverable stage failures
// are logged and absorbed.
func (e *Executor) Run(ctx context.Context, task admission.Task) error {
	log := logging.WithContext(ctx, e.logger)

	statusRef, err := e.client.SendText(ctx, task.Source.ChatID, "Processing "+task.FileName+"…")
	if err != nil {
		log.Warn("status message failed", logging.Error(err))
	}
	reporter := messaging.NewStatusReporter(e.client, statusRef, e.cfg.Delivery.ProgressPercentStep)

	runErr := e.process(ctx, task, statusRef, reporter, log)
	if runErr != nil {
		log.Error("task failed", logging.Error(runErr))
		if !statusRef.IsZero() {
			msg := "Failed: " + textutil.Truncate(runErr.Error(), userErrorLimit)
			if editErr := e.client.EditText(ctx, statusRef, msg); editErr != nil {
				log.Warn("failure status edit failed", logging.Error(editErr))
			}
		}
	}
	return runErr
}

func (e *Executor) process(ctx context.Context, task admission.Task, statusRef messaging.Ref, reporter *messaging.StatusReporter, log *slog.Logger) error {
	userSettings, err := e.store.Get(ctx, task.UserID)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "pipeline", "load settings", "settings unavailable", err)
	}
	if userSettings.FormatTemplate == "" {
		return services.Wrap(services.ErrValidation, "pipeline", "validate", "no format template configured", nil)
	}
	if max := e.cfg.Delivery.MaxFileSizeBytes; max > 0 && task.FileSize > max {
		return services.Wrap(services.ErrValidation, "pipeline", "validate",
			fmt.Sprintf("file exceeds the %s limit", humanize.Bytes(uint64(max))), nil)
	}

	md := naming.Extract(task.FileName)
	newName := textutil.SanitizeFileName(naming.ApplyTemplate(userSettings.FormatTemplate, md, task.FileName))

	ws, err := fileutil.NewWorkspace(e.cfg.Paths.WorkDir, task.ID)
	if err != nil {
		return services.Wrap(services.ErrAcquisition, "pipeline", "workspace", "scratch space unavailable", err)
	}
	defer func() {
		if cleanErr := ws.Cleanup(); cleanErr != nil {
			log.Warn("workspace cleanup failed", logging.Error(cleanErr))
		}
	}()

	downloadPath, err := e.acquire(ctx, task, ws, newName, reporter)
	if err != nil {
		return err
	}

	deliverPath := downloadPath
	if userSettings.MetadataEnabled {
		if tagged, tagErr := e.injectTags(ctx, downloadPath, ws.TaggedPath(newName), userSettings.Metadata); tagErr != nil {
			log.Warn("tag injection failed, delivering untagged file", logging.Error(tagErr))
		} else {
			deliverPath = tagged
		}
	}

	thumbnail := e.prepareThumbnail(ctx, userSettings.ThumbnailRef, ws, log)
	caption, duration := e.formatCaption(ctx, userSettings.CaptionTemplate, newName, deliverPath, task.FileSize, log)

	ref, err := e.deliver(ctx, task, userSettings, messaging.Attachment{
		Path:      deliverPath,
		FileName:  newName,
		Caption:   caption,
		Thumbnail: thumbnail,
		Duration:  duration,
	}, reporter)
	if err != nil {
		return err
	}

	log.Info("task delivered",
		logging.String(logging.FieldFilename, newName),
		logging.Int64("delivered_chat", ref.ChatID))
	if !statusRef.IsZero() {
		if delErr := e.client.Delete(ctx, statusRef); delErr != nil {
			log.Warn("status message delete failed", logging.Error(delErr))
		}
	}
	return nil
}

// acquire downloads the source media, holding one global download slot for
// the duration of the transfer only.
func (e *Executor) acquire(ctx context.Context, task admission.Task, ws *fileutil.Workspace, newName string, reporter *messaging.StatusReporter) (string, error) {
	if err := e.downloads.Acquire(ctx); err != nil {
		return "", services.Wrap(services.ErrAcquisition, "pipeline", "download", "canceled while waiting for download capacity", err)
	}
	defer e.downloads.Release()

	dest := ws.DownloadPath(newName)
	if err := e.client.Download(ctx, task.Source, dest, reporter.Func(ctx, "Downloading")); err != nil {
		return "", services.Wrap(services.ErrAcquisition, "pipeline", "download", "download failed", err)
	}
	if !fileutil.NonEmptyFile(dest) {
		return "", services.Wrap(services.ErrAcquisition, "pipeline", "download", "download produced no file", nil)
	}
	return dest, nil
}

func (e *Executor) injectTags(ctx context.Context, input, output string, tags settings.MetadataTags) (string, error) {
	if err := e.runner.InjectTags(ctx, input, output, tags); err != nil {
		return "", services.Wrap(services.ErrTransform, "pipeline", "tag", "tag injection failed", err)
	}
	return output, nil
}

// prepareThumbnail fetches and normalizes the user's stored thumbnail. Any
// failure yields "no thumbnail".
func (e *Executor) prepareThumbnail(ctx context.Context, thumbRef string, ws *fileutil.Workspace, log *slog.Logger) string {
	if thumbRef == "" {
		return ""
	}
	raw := ws.ThumbnailPath() + ".orig"
	if err := e.client.DownloadFile(ctx, thumbRef, raw); err != nil {
		log.Warn("thumbnail download failed", logging.Error(err))
		return ""
	}
	if err := imaging.Normalize(raw, ws.ThumbnailPath()); err != nil {
		log.Warn("thumbnail normalization failed", logging.Error(err))
		return ""
	}
	return ws.ThumbnailPath()
}

// formatCaption expands the user's caption template. Duration comes from a
// best-effort probe; when unavailable the token expands to "Unknown".
func (e *Executor) formatCaption(ctx context.Context, template, filename, path string, size int64, log *slog.Logger) (string, time.Duration) {
	duration, err := e.runner.Duration(ctx, path)
	if err != nil {
		log.Debug("duration probe failed", logging.Error(err))
		duration = 0
	}
	if template == "" {
		return filename, duration
	}
	return ExpandCaption(template, filename, size, duration, err == nil), duration
}

// deliver uploads the renamed file, holding one global upload slot for the
// transfer. Flood-control signals from the transport trigger a bounded
// sleep-and-retry of this stage only.
func (e *Executor) deliver(ctx context.Context, task admission.Task, userSettings settings.Settings, att messaging.Attachment, reporter *messaging.StatusReporter) (messaging.Ref, error) {
	kind := task.Kind
	if pref, ok := naming.ParseKind(userSettings.MediaPreference); ok {
		kind = pref
	}
	chatID := task.Source.ChatID
	if userSettings.Destination != 0 {
		chatID = userSettings.Destination
	}

	if err := e.uploads.Acquire(ctx); err != nil {
		return messaging.Ref{}, services.Wrap(services.ErrDelivery, "pipeline", "upload", "canceled while waiting for upload capacity", err)
	}
	defer e.uploads.Release()

	log := logging.WithContext(ctx, e.logger)
	var lastErr error
	for attempt := 0; attempt <= e.cfg.Delivery.FloodRetryLimit; attempt++ {
		ref, err := messaging.Upload(ctx, e.client, kind, chatID, att, reporter.Func(ctx, "Uploading"))
		if err == nil {
			return ref, nil
		}
		lastErr = err

		wait, isFlood := messaging.FloodWait(err)
		if !isFlood {
			return messaging.Ref{}, services.Wrap(services.ErrDelivery, "pipeline", "upload", "upload failed", err)
		}
		if attempt == e.cfg.Delivery.FloodRetryLimit {
			break
		}
		log.Warn("flood control, backing off",
			logging.Duration("wait", wait),
			logging.Int("attempt", attempt+1))
		if sleepErr := e.sleep(ctx, wait); sleepErr != nil {
			return messaging.Ref{}, services.Wrap(services.ErrDelivery, "pipeline", "upload", "canceled during flood backoff", sleepErr)
		}
	}
	return messaging.Ref{}, services.Wrap(services.ErrDelivery, "pipeline", "upload", "flood retry limit exhausted", lastErr)
}
