package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"renamer/internal/admission"
	"renamer/internal/config"
	"renamer/internal/daemon"
	"renamer/internal/ffmpeg"
	"renamer/internal/ipc"
	"renamer/internal/logging"
	"renamer/internal/messaging/botapi"
	"renamer/internal/notifications"
	"renamer/internal/pipeline"
	"renamer/internal/sequence"
	"renamer/internal/settings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	runID := time.Now().UTC().Format("20060102T150405Z")
	logPath := filepath.Join(cfg.Paths.LogDir, "renamerd-"+runID+".log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	client, err := botapi.New(cfg, logger)
	if err != nil {
		log.Fatalf("init transport: %v", err)
	}

	store, err := settings.Open(cfg)
	if err != nil {
		logger.Error("open settings store", logging.Error(err))
		return
	}
	defer store.Close()

	runner := ffmpeg.NewRunner(
		ffmpeg.WithFFmpeg(cfg.Tools.FFmpeg),
		ffmpeg.WithFFprobe(cfg.Tools.FFprobe),
	)

	notifier := notifications.NewService(cfg)

	var executor *pipeline.Executor
	controller := admission.NewController(cfg, logger, func(ctx context.Context, task admission.Task) {
		if err := executor.Run(ctx, task); err != nil {
			if notifyErr := notifier.NotifyTaskFailed(ctx, task.FileName, err); notifyErr != nil {
				logger.Warn("task failure alert", logging.Error(notifyErr))
			}
		}
	})
	executor = pipeline.New(cfg, client, store, runner, controller.Downloads(), controller.Uploads(), logger)
	sequences := sequence.NewManager(cfg, client, logger)

	d, err := daemon.New(cfg, client, store, executor, controller, sequences, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}
	defer d.Stop()

	ipcServer, err := ipc.NewServer(ctx, ipc.SocketPath(cfg), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		return
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := notifier.NotifyDaemonStarted(ctx); err != nil {
		logger.Warn("startup alert", logging.Error(err))
	}

	runUpdateLoop(ctx, client, d, logger)
	logger.Info("renamerd shutting down")
}

// runUpdateLoop long-polls the transport and routes events into the daemon
// until the context is cancelled.
func runUpdateLoop(ctx context.Context, client *botapi.Client, d *daemon.Daemon, logger *slog.Logger) {
	const pollTimeoutSeconds = 30
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}
		updates, err := client.Poll(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("poll updates", logging.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(3 * time.Second):
			}
			continue
		}
		for _, update := range updates {
			if update.ID >= offset {
				offset = update.ID + 1
			}
			dispatch(ctx, d, update, logger)
		}
	}
}

func dispatch(ctx context.Context, d *daemon.Daemon, update botapi.Update, logger *slog.Logger) {
	switch {
	case update.Incoming != nil:
		if err := d.HandleFile(ctx, *update.Incoming); err != nil {
			logger.Debug("file rejected",
				logging.Int64("user_id", update.UserID),
				logging.Error(err))
		}
	case update.Command != "":
		handleCommand(ctx, d, update)
	}
}

func handleCommand(ctx context.Context, d *daemon.Daemon, update botapi.Update) {
	switch update.Command {
	case "/startsequence":
		d.StartSequence(ctx, update.UserID, update.ChatID) //nolint:errcheck
	case "/endsequence":
		d.EndSequence(ctx, update.UserID, update.ChatID) //nolint:errcheck
	case "/cancelsequence":
		d.CancelSequence(ctx, update.UserID, update.ChatID) //nolint:errcheck
	case "/clearqueue":
		d.ClearQueue(ctx, update.UserID, update.ChatID)
	case "/queue":
		d.QueueStatus(ctx, update.UserID, update.ChatID)
	case "/showsequence":
		d.SequenceStatus(ctx, update.UserID, update.ChatID)
	case "/settemplate":
		d.SetTemplate(ctx, update.UserID, update.ChatID, update.Args) //nolint:errcheck
	case "/setcaption":
		d.SetCaption(ctx, update.UserID, update.ChatID, update.Args) //nolint:errcheck
	case "/setmedia":
		d.SetMediaPreference(ctx, update.UserID, update.ChatID, update.Args) //nolint:errcheck
	case "/metadata":
		d.SetMetadata(ctx, update.UserID, update.ChatID, update.Args) //nolint:errcheck
	case "/setdestination":
		d.SetDestination(ctx, update.UserID, update.ChatID, update.Args) //nolint:errcheck
	case "/showsettings":
		d.ShowSettings(ctx, update.UserID, update.ChatID) //nolint:errcheck
	}
}
